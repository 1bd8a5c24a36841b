// Package addr centralizes the I/O register and memory-region address
// constants used by the memory bus, PPU, APU, timer and joypad components.
package addr

// LCD / PPU registers.
const (
	LCDC uint16 = 0xFF40 // LCD Control
	STAT uint16 = 0xFF41 // LCD Status
	SCY  uint16 = 0xFF42 // Background scroll Y
	SCX  uint16 = 0xFF43 // Background scroll X
	LY   uint16 = 0xFF44 // Current scanline (read-only)
	LYC  uint16 = 0xFF45 // LY compare
	DMA  uint16 = 0xFF46 // OAM DMA source (high byte)
	BGP  uint16 = 0xFF47 // Background palette
	OBP0 uint16 = 0xFF48 // Object palette 0
	OBP1 uint16 = 0xFF49 // Object palette 1
	WY   uint16 = 0xFF4A // Window Y position
	WX   uint16 = 0xFF4B // Window X position (offset by 7)
)

// Audio registers. See https://gbdev.io/pandocs/Audio_Registers.html.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // CH1 sweep
	NR11 uint16 = 0xFF11 // CH1 length timer & duty
	NR12 uint16 = 0xFF12 // CH1 volume & envelope
	NR13 uint16 = 0xFF13 // CH1 period low
	NR14 uint16 = 0xFF14 // CH1 period high & control

	NR21 uint16 = 0xFF16 // CH2 length timer & duty
	NR22 uint16 = 0xFF17 // CH2 volume & envelope
	NR23 uint16 = 0xFF18 // CH2 period low
	NR24 uint16 = 0xFF19 // CH2 period high & control

	NR30 uint16 = 0xFF1A // CH3 DAC enable
	NR31 uint16 = 0xFF1B // CH3 length timer
	NR32 uint16 = 0xFF1C // CH3 output level
	NR33 uint16 = 0xFF1D // CH3 period low
	NR34 uint16 = 0xFF1E // CH3 period high & control

	NR41 uint16 = 0xFF20 // CH4 length timer
	NR42 uint16 = 0xFF21 // CH4 volume & envelope
	NR43 uint16 = 0xFF22 // CH4 frequency & randomness
	NR44 uint16 = 0xFF23 // CH4 control

	NR50 uint16 = 0xFF24 // Master volume & VIN panning
	NR51 uint16 = 0xFF25 // Sound panning
	NR52 uint16 = 0xFF26 // Sound on/off and channel status

	WaveRAMStart uint16 = 0xFF30 // 16 bytes, 32 4-bit samples
	WaveRAMEnd   uint16 = 0xFF3F
)

// OAM holds 40 four-byte sprite entries.
const (
	OAMStart uint16 = 0xFE00
	OAMEnd   uint16 = 0xFE9F
)

// Tile data and tile map regions in VRAM.
const (
	TileData0 uint16 = 0x8000 // unsigned addressing, tiles 0-255
	TileData1 uint16 = 0x8800 // signed addressing, tiles -128..-1
	TileData2 uint16 = 0x9000 // signed addressing, tiles 0..127

	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

// Interrupt flag/enable registers.
const (
	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// Joypad register.
const (
	P1 uint16 = 0xFF00
)

// Serial transfer registers.
const (
	// SB holds the byte shifted out MSB-first during a transfer; after
	// completion it holds the byte shifted in from the peer (0xFF when
	// nothing is connected).
	SB uint16 = 0xFF01
	// SC bit 7 starts a transfer (hardware clears it on completion), bit 0
	// selects the internal (~8192 Hz) vs. external clock source.
	SC uint16 = 0xFF02
)

// Timer registers.
const (
	DIV  uint16 = 0xFF04 // upper byte of the 16-bit system counter; any write resets it
	TIMA uint16 = 0xFF05 // timer counter, raises TimerInterrupt on overflow
	TMA  uint16 = 0xFF06 // value TIMA is reloaded with after overflow
	TAC  uint16 = 0xFF07 // timer enable + input clock select
)

// BootROMDisable, written once by the boot ROM to unmap itself from 0x0000-0x00FF.
const BootROMDisable uint16 = 0xFF50

// CGB-only registers. The bus decodes and stores these for compatibility
// with cartridges that probe them, but the PPU never renders in CGB mode.
const (
	KEY1 uint16 = 0xFF4D // speed switch
	VBK  uint16 = 0xFF4F // VRAM bank select
	HDMA1 uint16 = 0xFF51
	HDMA2 uint16 = 0xFF52
	HDMA3 uint16 = 0xFF53
	HDMA4 uint16 = 0xFF54
	HDMA5 uint16 = 0xFF55
	BCPS  uint16 = 0xFF68 // background palette index
	BCPD  uint16 = 0xFF69 // background palette data
	OCPS  uint16 = 0xFF6A // object palette index
	OCPD  uint16 = 0xFF6B // object palette data
	SVBK  uint16 = 0xFF70 // WRAM bank select
)

// Interrupt identifies one of the five DMG interrupt sources, in priority
// order from highest (VBlank) to lowest (Joypad).
type Interrupt uint8

const (
	VBlankInterrupt  Interrupt = 1 << 0
	LCDSTATInterrupt Interrupt = 1 << 1
	TimerInterrupt   Interrupt = 1 << 2
	SerialInterrupt  Interrupt = 1 << 3
	JoypadInterrupt  Interrupt = 1 << 4
)
