package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/memory"
)

type fakeJoypad struct {
	pressed  []memory.JoypadKey
	released []memory.JoypadKey
}

func (f *fakeJoypad) HandleKeyPress(key memory.JoypadKey) {
	f.pressed = append(f.pressed, key)
}

func (f *fakeJoypad) HandleKeyRelease(key memory.JoypadKey) {
	f.released = append(f.released, key)
}

func TestManagerRoutesGBActionsToJoypad(t *testing.T) {
	joypad := &fakeJoypad{}
	m := NewManager(joypad)

	m.Trigger(action.GBButtonA, event.Press)
	m.Trigger(action.GBButtonA, event.Release)
	m.Trigger(action.GBDPadRight, event.Press)

	assert.Equal(t, []memory.JoypadKey{memory.JoypadA}, joypad.pressed[:1])
	assert.Contains(t, joypad.pressed, memory.JoypadRight)
	assert.Equal(t, []memory.JoypadKey{memory.JoypadA}, joypad.released)
}

func TestManagerRoutesNonGBActionsToCallbacks(t *testing.T) {
	joypad := &fakeJoypad{}
	m := NewManager(joypad)

	called := false
	m.On(action.EmulatorPauseToggle, event.Press, func() { called = true })

	m.Trigger(action.EmulatorPauseToggle, event.Press)

	assert.True(t, called)
	assert.Empty(t, joypad.pressed)
}

func TestManagerDebouncesRapidCallbackTriggers(t *testing.T) {
	joypad := &fakeJoypad{}
	m := NewManager(joypad)

	count := 0
	m.On(action.EmulatorSnapshot, event.Press, func() { count++ })

	m.Trigger(action.EmulatorSnapshot, event.Press)
	m.Trigger(action.EmulatorSnapshot, event.Press)

	assert.Equal(t, 1, count, "second rapid press should be debounced")
}

func TestManagerIgnoresJoypadRoutingWhenBusIsNil(t *testing.T) {
	m := NewManager(nil)

	called := false
	m.On(action.GBButtonA, event.Press, func() { called = true })

	m.Trigger(action.GBButtonA, event.Press)

	assert.True(t, called, "with no joypad controller, GB actions should still reach registered callbacks")
}
