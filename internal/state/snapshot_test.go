package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldis/gbcore/internal/cpu"
	"github.com/haldis/gbcore/internal/memory"
	"github.com/haldis/gbcore/internal/state"
)

func newMachine(t *testing.T) (*memory.Bus, *cpu.CPU) {
	t.Helper()
	rom := make([]uint8, 0x8000)
	cart, err := memory.NewCartridge(rom)
	require.NoError(t, err)
	bus := memory.NewBus(cart)
	return bus, cpu.New(bus)
}

func TestSaveProducesExactSize(t *testing.T) {
	bus, c := newMachine(t)
	data := state.Save(bus, c)
	assert.Len(t, data, state.Size)
}

func TestSaveLoadRoundTripsRegistersAndFlags(t *testing.T) {
	bus, c := newMachine(t)
	c.SetPC(0x150)
	c.SetSP(0xC000)
	c.SetIME(true)
	c.SetRegisterFile([8]uint8{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0xB0})

	data := state.Save(bus, c)

	bus2, c2 := newMachine(t)
	require.NoError(t, state.Load(data, bus2, c2))

	assert.Equal(t, uint16(0x150), c2.PC())
	assert.Equal(t, uint16(0xC000), c2.SP())
	assert.True(t, c2.IME())
	assert.Equal(t, c.RegisterFile(), c2.RegisterFile())
}

func TestSaveLoadRoundTripsMemoryRegions(t *testing.T) {
	bus, c := newMachine(t)
	bus.Write(0x8000, 0xAB)   // VRAM
	bus.Write(0xC000, 0xCD)   // WRAM0
	bus.Write(0xDFFF, 0xEF)   // WRAM1 (last byte)
	bus.Write(0xFF80, 0x42)   // HRAM
	bus.Write(0xFFFF, 0x1F)   // IE

	data := state.Save(bus, c)

	bus2, c2 := newMachine(t)
	require.NoError(t, state.Load(data, bus2, c2))

	assert.Equal(t, uint8(0xAB), bus2.Read(0x8000))
	assert.Equal(t, uint8(0xCD), bus2.Read(0xC000))
	assert.Equal(t, uint8(0xEF), bus2.Read(0xDFFF))
	assert.Equal(t, uint8(0x42), bus2.Read(0xFF80))
	assert.Equal(t, uint8(0x1F), bus2.Read(0xFFFF))
}

func TestSaveLoadRoundTripsBootROMFlag(t *testing.T) {
	bus, c := newMachine(t)
	bus.LoadBootROM(make([]uint8, 0x100))
	require.True(t, bus.BootROMEnabled())

	data := state.Save(bus, c)

	bus2, c2 := newMachine(t)
	bus2.LoadBootROM(make([]uint8, 0x100))
	bus2.SetBootROMEnabled(false)
	require.NoError(t, state.Load(data, bus2, c2))

	assert.True(t, bus2.BootROMEnabled())
}

func TestLoadRejectsWrongSize(t *testing.T) {
	bus, c := newMachine(t)
	err := state.Load(make([]byte, state.Size-1), bus, c)
	assert.Error(t, err)
}

func TestLoadRestoresDIVFromHighByte(t *testing.T) {
	bus, c := newMachine(t)
	bus.Timer().Seed(0x3412)

	data := state.Save(bus, c)

	bus2, c2 := newMachine(t)
	require.NoError(t, state.Load(data, bus2, c2))

	assert.Equal(t, bus.Read(0xFF04), bus2.Read(0xFF04))
}
