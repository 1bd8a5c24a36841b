package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatBus is a 64 KiB byte array used as the CPU's bus in isolation tests.
type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(addr uint16) uint8        { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, value uint8) { b.mem[addr] = value }

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	c := New(bus)
	c.pc.set(0xC000)
	c.sp.set(0xFFFE)
	return c, bus
}

func loadProgram(bus *flatBus, at uint16, bytes ...uint8) {
	for i, b := range bytes {
		bus.mem[int(at)+i] = b
	}
}

func TestFlagSeed(t *testing.T) {
	c, bus := newTestCPU()
	c.a.set(0x3A)
	c.f.set(0x00)
	loadProgram(bus, c.pc.get(), 0xC6, 0xC6) // ADD A,0xC6

	cycles := c.Step()

	assert.Equal(t, uint8(0x00), c.a.get())
	assert.Equal(t, uint8(0xB0), c.f.get())
	assert.Equal(t, 8, cycles)
}

func TestDAA(t *testing.T) {
	c, bus := newTestCPU()
	c.a.set(0x45)
	c.f.set(0x00)
	loadProgram(bus, c.pc.get(), 0xC6, 0x38, 0x27) // ADD A,0x38 ; DAA

	c.Step()
	c.Step()

	assert.Equal(t, uint8(0x83), c.a.get())
	assert.Equal(t, uint8(0x00), c.f.get())
}

func TestBitwiseRotateWithCarry(t *testing.T) {
	c, bus := newTestCPU()
	c.a.set(0x95)
	c.f.set(0x10)
	loadProgram(bus, c.pc.get(), 0xCB, 0x17) // RL A

	cycles := c.Step()

	assert.Equal(t, uint8(0x2B), c.a.get())
	assert.Equal(t, uint8(0x10), c.f.get())
	assert.Equal(t, 8, cycles)
}

func TestBranchTiming(t *testing.T) {
	c, bus := newTestCPU()
	c.setZero(false)
	loadProgram(bus, c.pc.get(), 0xC8) // RET Z
	startPC := c.pc.get()
	pcAfterOpcode := startPC + 1

	cycles := c.Step()
	assert.Equal(t, 8, cycles)
	assert.Equal(t, pcAfterOpcode, c.pc.get())

	c, bus = newTestCPU()
	c.setZero(true)
	c.push16(0xD000)
	loadProgram(bus, c.pc.get(), 0xC8)

	cycles = c.Step()
	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0xD000), c.pc.get())
}

func TestCycleCountsAreWellFormed(t *testing.T) {
	valid := map[int]bool{4: true, 8: true, 12: true, 16: true, 20: true, 24: true}

	// Spot-check a representative opcode from each q group.
	ops := []struct {
		name  string
		bytes []uint8
	}{
		{"NOP", []uint8{0x00}},
		{"LD BC,nn", []uint8{0x01, 0x34, 0x12}},
		{"INC B", []uint8{0x04}},
		{"LD B,C", []uint8{0x41}},
		{"LD (HL),B", []uint8{0x70}},
		{"ADD A,B", []uint8{0x80}},
		{"CALL nn", []uint8{0xCD, 0x00, 0xD0}},
		{"CB BIT (HL)", []uint8{0xCB, 0x46}},
	}
	for _, op := range ops {
		c, bus := newTestCPU()
		c.setHL(0xC100)
		loadProgram(bus, c.pc.get(), op.bytes...)
		cycles := c.Step()
		assert.True(t, valid[cycles], "%s returned non-canonical cycle count %d", op.name, cycles)
	}
}

func TestFWritesAlwaysClearLowNibble(t *testing.T) {
	c, _ := newTestCPU()
	c.f.set(0xFF)
	assert.Equal(t, uint8(0xF0), c.f.get()&0xFF, "low nibble of F must be zero after any write")
}

func TestPushPopPreservesSP(t *testing.T) {
	c, _ := newTestCPU()
	originalSP := c.sp.get()
	c.push16(0xBEEF)
	assert.Equal(t, uint16(0xBEEF), c.pop16())
	assert.Equal(t, originalSP, c.sp.get())
}

func TestIncDecHalfCarryBoundary(t *testing.T) {
	c, bus := newTestCPU()
	c.b.set(0x0F)
	loadProgram(bus, c.pc.get(), 0x04) // INC B
	c.Step()
	assert.True(t, c.halfCarry(), "INC of 0x0F should set H")

	c, bus = newTestCPU()
	c.b.set(0x10)
	loadProgram(bus, c.pc.get(), 0x05) // DEC B
	c.Step()
	assert.True(t, c.halfCarry(), "DEC of 0x10 should set H")
}

func TestAddSPSignedNegativeOffset(t *testing.T) {
	c, bus := newTestCPU()
	c.sp.set(0x1000)
	loadProgram(bus, c.pc.get(), 0xE8, 0x80) // ADD SP,0x80 (-128)
	c.Step()
	assert.Equal(t, uint16(0x0F80), c.sp.get())
}

func TestHLIncrementWrapsAt0xFFFF(t *testing.T) {
	c, bus := newTestCPU()
	c.setHL(0xFFFF)
	loadProgram(bus, c.pc.get(), 0x2A) // LD A,(HL+)
	c.Step()
	assert.Equal(t, uint16(0x0000), c.hl())
}

func TestHaltedStepReturnsFourWithoutFetching(t *testing.T) {
	c, bus := newTestCPU()
	c.halted = true
	pc := c.pc.get()
	loadProgram(bus, pc, 0xFF) // would RST 0x38 if fetched
	cycles := c.Step()
	require.Equal(t, 4, cycles)
	assert.Equal(t, pc, c.pc.get(), "halted CPU must not advance PC")
}

func TestEIDelaysInterruptEnableByOneInstruction(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, c.pc.get(), 0xFB, 0x00) // EI ; NOP
	c.Step()                                 // EI
	assert.False(t, c.IME(), "IME must not take effect until after the next instruction")
	c.Step() // NOP
	assert.True(t, c.IME())
}
