package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldis/gbcore/internal/addr"
)

// fakeBus is a minimal in-memory Bus double for PPU tests.
type fakeBus struct {
	mem        [0x10000]uint8
	interrupts addr.Interrupt
}

func newFakeBus() *fakeBus {
	b := &fakeBus{}
	b.mem[addr.LCDC] = 0x91 // LCD on, BG on, tile data 0x8000
	return b
}

func (b *fakeBus) Read(address uint16) uint8         { return b.mem[address] }
func (b *fakeBus) Write(address uint16, value uint8) { b.mem[address] = value }
func (b *fakeBus) RequestInterrupt(i addr.Interrupt)  { b.interrupts |= i }

func TestOneFrameRaisesExactlyOneVBlank(t *testing.T) {
	bus := newFakeBus()
	ppu := NewPPU(bus)

	vblankCount := 0
	const totalCycles = 70224
	const step = 4
	for done := 0; done < totalCycles; done += step {
		before := bus.interrupts & addr.VBlankInterrupt
		ppu.Tick(step)
		after := bus.interrupts & addr.VBlankInterrupt
		if before == 0 && after != 0 {
			vblankCount++
			bus.interrupts &^= addr.VBlankInterrupt
		}
	}

	assert.Equal(t, 1, vblankCount)
	assert.Equal(t, uint8(0), bus.Read(addr.LY))
}

func TestModeSequenceWithinOneScanline(t *testing.T) {
	bus := newFakeBus()
	ppu := NewPPU(bus)

	ppu.Tick(4)
	require.Equal(t, uint8(2), bus.Read(addr.STAT)&0x03)

	ppu.Tick(80)
	assert.Equal(t, uint8(3), bus.Read(addr.STAT)&0x03)

	ppu.Tick(172)
	assert.Equal(t, uint8(0), bus.Read(addr.STAT)&0x03)
}

func TestLineAdvancesToVBlankMode(t *testing.T) {
	bus := newFakeBus()
	ppu := NewPPU(bus)

	for i := 0; i < 144; i++ {
		ppu.Tick(dotsPerLine)
	}

	assert.Equal(t, uint8(144), bus.Read(addr.LY))
	assert.Equal(t, uint8(1), bus.Read(addr.STAT)&0x03)
}

func TestLYCEqualRaisesSTATInterruptWhenEnabled(t *testing.T) {
	bus := newFakeBus()
	bus.mem[addr.LYC] = 1
	bus.mem[addr.STAT] = 1 << statLYCIrq
	ppu := NewPPU(bus)

	ppu.Tick(dotsPerLine)

	assert.NotZero(t, bus.interrupts&addr.LCDSTATInterrupt)
	assert.NotZero(t, bus.Read(addr.STAT)&(1<<statLYCEqual))
}

func TestLCDDisableFreezesLYAtZero(t *testing.T) {
	bus := newFakeBus()
	bus.mem[addr.LCDC] = 0x00
	ppu := NewPPU(bus)

	ppu.Tick(dotsPerLine * 3)

	assert.Equal(t, uint8(0), bus.Read(addr.LY))
}

func TestBackgroundDisabledBlanksToWhite(t *testing.T) {
	bus := newFakeBus()
	bus.mem[addr.LCDC] = 0x80 // LCD on, BG off
	bus.mem[addr.BGP] = 0xE4
	ppu := NewPPU(bus)

	ppu.Tick(dotsPerLine)

	pixel := ppu.FrameBuffer().GetPixel(0, 0)
	assert.Equal(t, uint32(WhiteColor), pixel)
}
