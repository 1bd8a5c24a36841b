package cpu

import "github.com/haldis/gbcore/internal/addr"

// interruptVectors holds the five service addresses in priority order:
// VBlank, STAT, Timer, Serial, Joypad.
var interruptVectors = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

// CheckInterrupts is invoked by the scheduler between instructions. When IME
// is set and a requested line is also enabled, it services the
// lowest-numbered pending line: IME is cleared, the IF bit is cleared, the
// halt latch is cleared, PC is pushed, and PC is set to the service vector.
// It reports whether an interrupt was serviced so the scheduler can account
// for the 20-cycle dispatch cost. A halted CPU with a pending-but-masked
// interrupt (IME=0) wakes without servicing, per spec.
func (c *CPU) CheckInterrupts() bool {
	ifReg := c.bus.Read(addr.IF)
	ieReg := c.bus.Read(addr.IE)
	pending := ifReg & ieReg & 0x1F
	if pending == 0 {
		return false
	}

	if !c.ime {
		if c.halted {
			c.halted = false
		}
		return false
	}

	for i := 0; i < 5; i++ {
		bit := uint8(1 << i)
		if pending&bit == 0 {
			continue
		}
		c.ime = false
		c.imeDelay = 0
		c.bus.Write(addr.IF, ifReg&^bit)
		c.halted = false
		c.push16(c.pc.get())
		c.pc.set(interruptVectors[i])
		return true
	}
	return false
}
