package cpu

// This file implements the four opcode groups selected by q = op>>6, using
// the classic y/z/p decomposition of the remaining six bits: z = n2 (low 3
// bits), y = n1 (middle 3 bits), p = y>>1, low = y&1. The grouping matches
// the published SM83/8080-style opcode table spec.md §4.1 references.

var aluOps = [8]func(c *CPU, v uint8){
	func(c *CPU, v uint8) { c.addToA(v, 0) },
	func(c *CPU, v uint8) { c.addToA(v, boolToBit(c.carry())) },
	func(c *CPU, v uint8) { c.subFromA(v, 0, true) },
	func(c *CPU, v uint8) { c.subFromA(v, boolToBit(c.carry()), true) },
	func(c *CPU, v uint8) { c.and(v) },
	func(c *CPU, v uint8) { c.xor(v) },
	func(c *CPU, v uint8) { c.or(v) },
	func(c *CPU, v uint8) { c.subFromA(v, 0, false) },
}

// execMisc handles q=0: relative jumps, 16-bit loads/inc/dec, 8-bit
// inc/dec/immediate-load, accumulator rotates, DAA/CPL/SCF/CCF.
func (c *CPU) execMisc(op, y, z uint8) int {
	p := y >> 1
	low := y & 1

	switch z {
	case 0:
		switch {
		case y == 0:
			return 4 // NOP
		case y == 1:
			addr := c.fetch16()
			sp := c.sp.get()
			c.bus.Write(addr, uint8(sp))
			c.bus.Write(addr+1, uint8(sp>>8))
			return 20
		case y == 2:
			c.fetch8() // STOP's required (ignored) second byte
			return 4
		case y == 3:
			offset := c.fetch8()
			c.pc.set(uint16(int32(c.pc.get()) + int32(int8(offset))))
			return 12
		default: // y = 4..7: JR cc[y-4], d
			offset := c.fetch8()
			if c.condition(y - 4) {
				c.pc.set(uint16(int32(c.pc.get()) + int32(int8(offset))))
				return 12
			}
			return 8
		}
	case 1:
		if low == 0 {
			c.setR16(p, c.fetch16())
			return 12
		}
		c.addToHL(c.r16(p))
		return 8
	case 2:
		addr := c.indirectAddr(p)
		if low == 0 {
			c.bus.Write(addr, c.a.get())
		} else {
			c.a.set(c.bus.Read(addr))
		}
		return 8
	case 3:
		if low == 0 {
			c.setR16(p, c.r16(p)+1)
		} else {
			c.setR16(p, c.r16(p)-1)
		}
		return 8
	case 4:
		c.setR8(y, c.inc8(c.r8(y)))
		return 4
	case 5:
		c.setR8(y, c.dec8(c.r8(y)))
		return 4
	case 6:
		c.setR8(y, c.fetch8())
		return 8
	case 7:
		switch y {
		case 0:
			c.a.set(c.rlc(c.a.get()))
			c.setZero(false)
		case 1:
			c.a.set(c.rrc(c.a.get()))
			c.setZero(false)
		case 2:
			c.a.set(c.rl(c.a.get()))
			c.setZero(false)
		case 3:
			c.a.set(c.rr(c.a.get()))
			c.setZero(false)
		case 4:
			c.daa()
		case 5:
			c.cpl()
		case 6:
			c.scf()
		case 7:
			c.ccf()
		}
		return 4
	}
	panic("cpu: unreachable misc opcode field")
}

// indirectAddr resolves the (BC)/(DE)/(HL+)/(HL-) operand used by the z=2
// load group, handling the HL auto-increment/decrement side effect.
func (c *CPU) indirectAddr(p uint8) uint16 {
	switch p {
	case 0:
		return c.bc()
	case 1:
		return c.de()
	case 2:
		addr := c.hl()
		c.setHL(addr + 1)
		return addr
	case 3:
		addr := c.hl()
		c.setHL(addr - 1)
		return addr
	}
	panic("cpu: indirect address field out of range")
}

// execLoad handles q=1: LD r[y],r[z], with (HL),(HL) reinterpreted as HALT.
func (c *CPU) execLoad(y, z uint8) int {
	if y == 6 && z == 6 {
		c.halted = true
		return 4
	}
	c.setR8(y, c.r8(z))
	return 4
}

// execALU handles q=2: ALU A,r[z] selected by y.
func (c *CPU) execALU(y, z uint8) int {
	aluOps[y](c, c.r8(z))
	return 4
}

// execControl handles q=3: conditional control flow, stack ops, immediates,
// RST, EI/DI, and the CB-prefix escape.
func (c *CPU) execControl(op, y, z uint8) int {
	p := y >> 1
	low := y & 1

	switch z {
	case 0:
		switch {
		case y <= 3:
			if c.condition(y) {
				c.pc.set(c.pop16())
				return 20
			}
			return 8
		case y == 4:
			c.bus.Write(0xFF00+uint16(c.fetch8()), c.a.get())
			return 12
		case y == 5:
			c.sp.set(c.addSPSigned(c.fetch8()))
			return 16
		case y == 6:
			c.a.set(c.bus.Read(0xFF00 + uint16(c.fetch8())))
			return 12
		default: // y == 7
			c.setHL(c.addSPSigned(c.fetch8()))
			return 12
		}
	case 1:
		if low == 0 {
			c.setR16Stack(p, c.pop16())
			return 12
		}
		switch p {
		case 0:
			c.pc.set(c.pop16())
			return 16
		case 1:
			c.pc.set(c.pop16())
			c.SetIME(true)
			return 16
		case 2:
			c.pc.set(c.hl())
			return 4
		default: // p == 3
			c.sp.set(c.hl())
			return 8
		}
	case 2:
		switch {
		case y <= 3:
			addr := c.fetch16()
			if c.condition(y) {
				c.pc.set(addr)
				return 16
			}
			return 12
		case y == 4:
			c.bus.Write(0xFF00+uint16(c.c.get()), c.a.get())
			return 8
		case y == 5:
			c.bus.Write(c.fetch16(), c.a.get())
			return 16
		case y == 6:
			c.a.set(c.bus.Read(0xFF00 + uint16(c.c.get())))
			return 8
		default: // y == 7
			c.a.set(c.bus.Read(c.fetch16()))
			return 16
		}
	case 3:
		switch y {
		case 0:
			c.pc.set(c.fetch16())
			return 16
		case 1:
			return c.execCB()
		case 6:
			c.ime = false
			c.imeDelay = 0
			return 4
		case 7:
			c.imeDelay = 1
			return 4
		default:
			panic("cpu: illegal opcode")
		}
	case 4:
		addr := c.fetch16()
		if y > 3 {
			panic("cpu: illegal opcode")
		}
		if c.condition(y) {
			c.push16(c.pc.get())
			c.pc.set(addr)
			return 24
		}
		return 12
	case 5:
		if low == 0 {
			c.push16(c.r16Stack(p))
			return 16
		}
		if p == 0 {
			addr := c.fetch16()
			c.push16(c.pc.get())
			c.pc.set(addr)
			return 24
		}
		panic("cpu: illegal opcode")
	case 6:
		aluOps[y](c, c.fetch8())
		return 8
	case 7:
		c.push16(c.pc.get())
		c.pc.set(uint16(y) * 8)
		return 16
	}
	panic("cpu: unreachable control opcode field")
}

// cbOps is the CB-prefix q'=0 rotate/shift table, in n1' order.
var cbOps = [8]func(c *CPU, v uint8) uint8{
	(*CPU).rlc,
	(*CPU).rrc,
	(*CPU).rl,
	(*CPU).rr,
	(*CPU).sla,
	(*CPU).sra,
	(*CPU).swap,
	(*CPU).srl,
}

// execCB fetches and executes the CB-prefixed bitwise opcode. The flat base
// cost of 8 plus the (HL) read/write surcharges applied by r8/setR8 yields
// the documented 8/12/16-cycle totals.
func (c *CPU) execCB() int {
	op := c.fetch8()
	q := op >> 6
	n1 := (op >> 3) & 7
	n2 := op & 7

	switch q {
	case 0:
		c.setR8(n2, cbOps[n1](c, c.r8(n2)))
	case 1:
		c.bit(n1, c.r8(n2))
	case 2:
		c.setR8(n2, c.res(n1, c.r8(n2)))
	case 3:
		c.setR8(n2, c.set(n1, c.r8(n2)))
	}
	return 8
}
