package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldis/gbcore/internal/addr"
)

func minimalHeader(cartType uint8, ramSizeCode uint8) []uint8 {
	rom := make([]uint8, 0x8000)
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = 0x00
	rom[ramSizeAddress] = ramSizeCode
	return rom
}

func TestMBC1BankSwitchingScenario(t *testing.T) {
	rom := make([]uint8, 0x4000*4)
	rom[cartridgeTypeAddress] = 0x01
	rom[romSizeAddress] = 0x00
	rom[ramSizeAddress] = 0x02
	// Mark bank 2's first byte so switching to it is observable.
	rom[0x4000*2] = 0xAB
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	bus.Write(0x2000, 0x02) // select ROM bank 2
	assert.Equal(t, uint8(0xAB), bus.Read(0x4000))

	bus.Write(0x2000, 0x00) // bank 0 forced to 1
	assert.NotEqual(t, uint8(0xAB), bus.Read(0x4000))
}

func TestMBC1RAMDisabledReadsFF(t *testing.T) {
	rom := minimalHeader(0x02, 0x02)
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	bus.Write(0xA000, 0x42) // ignored, RAM not enabled
	assert.Equal(t, uint8(0xFF), bus.Read(0xA000))

	bus.Write(0x0000, 0x0A) // enable RAM
	bus.Write(0xA000, 0x42)
	assert.Equal(t, uint8(0x42), bus.Read(0xA000))
}

func TestEchoRAMMirrorsWorkRAM(t *testing.T) {
	rom := minimalHeader(0x00, 0x00)
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	bus.Write(0xC010, 0x77)
	assert.Equal(t, uint8(0x77), bus.Read(0xE010))

	bus.Write(0xE020, 0x99)
	assert.Equal(t, uint8(0x99), bus.Read(0xC020))
}

func TestBootROMDisableIsIdempotentAndOneShot(t *testing.T) {
	rom := minimalHeader(0x00, 0x00)
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	boot := make([]uint8, 0x100)
	boot[0] = 0x11
	bus.LoadBootROM(boot)
	assert.Equal(t, uint8(0x11), bus.Read(0x0000))

	bus.Write(addr.BootROMDisable, 0x01)
	rom[0] = 0x22
	assert.Equal(t, uint8(0x22), bus.Read(0x0000))

	bus.Write(addr.BootROMDisable, 0x01)
	assert.Equal(t, uint8(0x22), bus.Read(0x0000))
}

func TestDMACopiesOAM(t *testing.T) {
	rom := minimalHeader(0x00, 0x00)
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	for i := uint16(0); i < 0xA0; i++ {
		bus.Write(0xC100+i, uint8(i))
	}

	bus.Write(addr.DMA, 0xC1)

	for i := uint16(0); i < 0xA0; i++ {
		assert.Equal(t, uint8(i), bus.Read(addr.OAMStart+i))
	}
}

func TestJoypadInterruptOnFallingEdge(t *testing.T) {
	rom := minimalHeader(0x00, 0x00)
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	bus.Write(addr.P1, 0x10) // select buttons nibble (bit 5 low)
	bus.HandleKeyPress(JoypadA)

	assert.NotZero(t, bus.Read(addr.IF)&uint8(addr.JoypadInterrupt))
}

func TestTimerInterruptPropagatesThroughBus(t *testing.T) {
	rom := minimalHeader(0x00, 0x00)
	cart, err := NewCartridge(rom)
	require.NoError(t, err)
	bus := NewBus(cart)

	bus.Write(addr.TAC, 0x05) // enabled, fastest speed
	bus.Write(addr.TIMA, 0xFF)
	bus.Write(addr.TMA, 0x10)

	for i := 0; i < 50; i++ {
		bus.Tick(4)
	}

	assert.NotZero(t, bus.Read(addr.IF)&uint8(addr.TimerInterrupt))
}
