// Package cpu implements the Sharp SM83 instruction interpreter: register
// file, flag semantics, opcode decode/execute, and interrupt dispatch.
package cpu

// Bus is the CPU's sole view of the rest of the machine. It is implemented
// by the memory bus, which owns every other peripheral; the CPU never talks
// to the PPU, APU, or timers directly.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// flagRegister is the F register: set keeps only the high nibble, so the
// low nibble of F reads as zero after any write.
type flagRegister uint8

func (r flagRegister) get() uint8 { return uint8(r) }

func (r *flagRegister) set(value uint8) { *r = flagRegister(value & 0xF0) }

// CPU holds the SM83 register file and executes one instruction per Step.
type CPU struct {
	b, c, d, e, h, l, a Register8
	f                   flagRegister
	sp, pc              Register16

	ime    bool
	halted bool

	// imeDelay counts down from 1 after EI: the flag takes effect only
	// after the instruction following EI has executed.
	imeDelay int

	// extraCycles accumulates the +4 cost of (HL) operand accesses and
	// other opcode-specific surcharges incurred while decoding the
	// instruction currently being stepped; Step resets it each call.
	extraCycles int

	bus Bus
}

// New constructs a CPU wired to bus. Registers power on to the documented
// DMG post-boot-ROM values so callers that skip the boot ROM still observe
// the values real hardware leaves behind.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.a.set(0x01)
	c.f.set(0xB0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp.set(0xFFFE)
	c.pc.set(0x0100)
	return c
}

// Reset reinitializes the CPU to power-on state with PC at 0x0000, the entry
// point used when the boot ROM overlay is mapped in.
func (c *CPU) Reset() {
	c.a.set(0)
	c.f.set(0)
	c.setBC(0)
	c.setDE(0)
	c.setHL(0)
	c.sp.set(0)
	c.pc.set(0)
	c.ime = false
	c.halted = false
	c.imeDelay = 0
}

// PC returns the current program counter, used by disassembly and tests.
func (c *CPU) PC() uint16 { return c.pc.get() }

// SetPC forces the program counter, used when dispatching an interrupt or
// restoring a state snapshot.
func (c *CPU) SetPC(value uint16) { c.pc.set(value) }

// SP returns the current stack pointer.
func (c *CPU) SP() uint16 { return c.sp.get() }

// SetSP forces the stack pointer, used when restoring a state snapshot.
func (c *CPU) SetSP(value uint16) { c.sp.set(value) }

// IME reports whether the interrupt master enable flag is set.
func (c *CPU) IME() bool { return c.ime }

// SetIME forces the interrupt master enable flag, used by RETI/interrupt
// dispatch and by state-snapshot restore.
func (c *CPU) SetIME(on bool) { c.ime = on; c.imeDelay = 0 }

// Halted reports whether the CPU is in the HALT low-power state.
func (c *CPU) Halted() bool { return c.halted }

// SetHalted forces the HALT state, used when restoring a state snapshot.
func (c *CPU) SetHalted(halted bool) { c.halted = halted }

// RegisterFile returns the eight 8-bit registers in B,C,D,E,H,L,A,F order,
// the layout the state snapshot format uses.
func (c *CPU) RegisterFile() [8]uint8 {
	return [8]uint8{c.b.get(), c.c.get(), c.d.get(), c.e.get(), c.h.get(), c.l.get(), c.a.get(), c.f.get() & 0xF0}
}

// SetRegisterFile restores the eight 8-bit registers from a state snapshot.
func (c *CPU) SetRegisterFile(r [8]uint8) {
	c.b.set(r[0])
	c.c.set(r[1])
	c.d.set(r[2])
	c.e.set(r[3])
	c.h.set(r[4])
	c.l.set(r[5])
	c.a.set(r[6])
	c.f.set(r[7] & 0xF0)
}

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.pc.get())
	c.pc.incr()
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(value uint16) {
	c.sp.decr()
	c.bus.Write(c.sp.get(), uint8(value>>8))
	c.sp.decr()
	c.bus.Write(c.sp.get(), uint8(value))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.sp.get())
	c.sp.incr()
	hi := c.bus.Read(c.sp.get())
	c.sp.incr()
	return uint16(hi)<<8 | uint16(lo)
}

// Step fetches, decodes, and executes one instruction, returning the number
// of T-cycles consumed. While halted it returns 4 without fetching.
func (c *CPU) Step() int {
	if c.halted {
		return 4
	}

	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.ime = true
		}
	}

	c.extraCycles = 0
	op := c.fetch8()

	q := op >> 6
	n1 := (op >> 3) & 7
	n2 := op & 7

	var base int
	switch q {
	case 0:
		base = c.execMisc(op, n1, n2)
	case 1:
		base = c.execLoad(n1, n2)
	case 2:
		base = c.execALU(n1, n2)
	case 3:
		base = c.execControl(op, n1, n2)
	}

	return base + c.extraCycles
}
