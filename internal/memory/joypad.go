package memory

import (
	"github.com/haldis/gbcore/internal/addr"
	"github.com/haldis/gbcore/internal/bit"
)

// JoypadKey identifies one of the eight Game Boy buttons.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// joypadState tracks the two independently-selectable button nibbles that
// P1 (0xFF00) multiplexes. A bit is 0 when its button is held, per hardware
// convention.
type joypadState struct {
	buttons uint8
	dpad    uint8
	select_ uint8 // raw P1 bits 4-5, as last written
}

func newJoypadState() joypadState {
	return joypadState{buttons: 0x0F, dpad: 0x0F, select_: 0x30}
}

func (j *joypadState) readP1() uint8 {
	result := uint8(0xC0) | (j.select_ & 0x30)

	selectDpad := !bit.IsSet(4, j.select_)
	selectButtons := !bit.IsSet(5, j.select_)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}
	return result
}

func (j *joypadState) writeP1(value uint8) {
	j.select_ = value & 0x30
}

// Press marks key held. It reports whether a selected-nibble falling edge
// occurred, which the caller raises as a joypad interrupt.
func (j *joypadState) press(key JoypadKey) bool {
	before := j.readP1()
	switch key {
	case JoypadRight:
		j.dpad = bit.Reset(0, j.dpad)
	case JoypadLeft:
		j.dpad = bit.Reset(1, j.dpad)
	case JoypadUp:
		j.dpad = bit.Reset(2, j.dpad)
	case JoypadDown:
		j.dpad = bit.Reset(3, j.dpad)
	case JoypadA:
		j.buttons = bit.Reset(0, j.buttons)
	case JoypadB:
		j.buttons = bit.Reset(1, j.buttons)
	case JoypadSelect:
		j.buttons = bit.Reset(2, j.buttons)
	case JoypadStart:
		j.buttons = bit.Reset(3, j.buttons)
	}
	return before&^j.readP1()&0x0F != 0
}

func (j *joypadState) release(key JoypadKey) {
	switch key {
	case JoypadRight:
		j.dpad = bit.Set(0, j.dpad)
	case JoypadLeft:
		j.dpad = bit.Set(1, j.dpad)
	case JoypadUp:
		j.dpad = bit.Set(2, j.dpad)
	case JoypadDown:
		j.dpad = bit.Set(3, j.dpad)
	case JoypadA:
		j.buttons = bit.Set(0, j.buttons)
	case JoypadB:
		j.buttons = bit.Set(1, j.buttons)
	case JoypadSelect:
		j.buttons = bit.Set(2, j.buttons)
	case JoypadStart:
		j.buttons = bit.Set(3, j.buttons)
	}
}

// HandleKeyPress updates button state and raises JoypadInterrupt on a
// falling edge of the currently-selected nibble.
func (b *Bus) HandleKeyPress(key JoypadKey) {
	if b.joypad.press(key) {
		b.RequestInterrupt(addr.JoypadInterrupt)
	}
}

// HandleKeyRelease updates button state. Releases never raise an interrupt.
func (b *Bus) HandleKeyRelease(key JoypadKey) {
	b.joypad.release(key)
}
