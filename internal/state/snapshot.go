// Package state implements the emulator's fixed-layout binary save-state
// format: a flat dump of everything needed to resume emulation bit-exactly
// going forward, with no header, version byte, or compression - just the
// regions concatenated in a fixed order.
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/haldis/gbcore/internal/addr"
	"github.com/haldis/gbcore/internal/cpu"
	"github.com/haldis/gbcore/internal/memory"
)

const (
	vramSize = 0x2000 // 8 KiB
	wramSize = 0x2000 // WRAM0 (4 KiB) followed by WRAM1 (4 KiB)
	ioSize   = 0x80   // 0xFF00-0xFF7F
	hramSize = 0x7F   // 0xFF80-0xFFFE
)

// Size is the exact byte length of a snapshot: VRAM, WRAM, IO, HRAM, IE,
// the eight-register file, PC, SP, the boot-ROM-enabled flag, and IME.
const Size = vramSize + wramSize + ioSize + hramSize + 1 + 8 + 2 + 2 + 1 + 1

// Save captures bus and cpu into the fixed-layout binary format described
// by Size's layout, in field order.
func Save(bus *memory.Bus, c *cpu.CPU) []byte {
	var buf bytes.Buffer
	buf.Grow(Size)

	buf.Write(bus.VRAMBytes())
	buf.Write(bus.WRAMBytes())
	for address := addr.P1; address < addr.P1+ioSize; address++ {
		buf.WriteByte(bus.Read(address))
	}
	buf.Write(bus.HRAMBytes())
	buf.WriteByte(bus.IE())

	regs := c.RegisterFile()
	buf.Write(regs[:])

	binary.Write(&buf, binary.LittleEndian, c.PC())
	binary.Write(&buf, binary.LittleEndian, c.SP())

	buf.WriteByte(boolByte(bus.BootROMEnabled()))
	buf.WriteByte(boolByte(c.IME()))

	return buf.Bytes()
}

// Load restores bus and cpu from a snapshot produced by Save. It rejects
// any input that isn't exactly Size bytes rather than guessing at a
// truncated or padded layout.
func Load(data []byte, bus *memory.Bus, c *cpu.CPU) error {
	if len(data) != Size {
		return fmt.Errorf("state: snapshot is %d bytes, want %d", len(data), Size)
	}
	r := bytes.NewReader(data)

	vram := make([]byte, vramSize)
	if err := readFull(r, vram); err != nil {
		return fmt.Errorf("state: read vram: %w", err)
	}
	bus.SetVRAMBytes(vram)

	wram := make([]byte, wramSize)
	if err := readFull(r, wram); err != nil {
		return fmt.Errorf("state: read wram: %w", err)
	}
	bus.SetWRAMBytes(wram)

	ioRegs := make([]byte, ioSize)
	if err := readFull(r, ioRegs); err != nil {
		return fmt.Errorf("state: read io: %w", err)
	}
	for i, value := range ioRegs {
		bus.RestoreIORegister(addr.P1+uint16(i), value)
	}

	hram := make([]byte, hramSize)
	if err := readFull(r, hram); err != nil {
		return fmt.Errorf("state: read hram: %w", err)
	}
	bus.SetHRAMBytes(hram)

	ie, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("state: read ie: %w", err)
	}
	bus.SetIE(ie)

	var regs [8]byte
	if err := readFull(r, regs[:]); err != nil {
		return fmt.Errorf("state: read registers: %w", err)
	}
	c.SetRegisterFile(regs)

	var pc, sp uint16
	if err := binary.Read(r, binary.LittleEndian, &pc); err != nil {
		return fmt.Errorf("state: read pc: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &sp); err != nil {
		return fmt.Errorf("state: read sp: %w", err)
	}
	c.SetPC(pc)
	c.SetSP(sp)

	bootOn, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("state: read boot-on: %w", err)
	}
	bus.SetBootROMEnabled(bootOn != 0)

	ime, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("state: read ime: %w", err)
	}
	c.SetIME(ime != 0)

	return nil
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
