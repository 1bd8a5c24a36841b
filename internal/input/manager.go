package input

import (
	"time"

	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/memory"
)

// debounceDuration is the minimum time between debounced events of the
// same action/event-type pair.
const debounceDuration = 300 * time.Millisecond

// joypadController is the narrow slice of *memory.Bus the Manager needs to
// drive Game Boy hardware controls, kept local so tests can fake it.
type joypadController interface {
	HandleKeyPress(key memory.JoypadKey)
	HandleKeyRelease(key memory.JoypadKey)
}

// Manager routes resolved input actions either directly into the Game Boy
// joypad register (through bus) or to callbacks registered via On, for
// everything that isn't a hardware control.
type Manager struct {
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	bus           joypadController
}

// NewManager builds a Manager that drives bus's joypad state for GB
// hardware actions. bus may be nil for tests that only exercise callbacks.
func NewManager(bus joypadController) *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		bus:           bus,
	}
}

// On registers callback to run whenever act fires with event type evt.
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	if m.lastTriggered[act] == nil {
		m.lastTriggered[act] = make(map[event.Type]time.Time)
	}

	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger routes act/evt to the joypad (for GB hardware controls) or to
// registered callbacks otherwise.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if evt == event.Press || evt == event.Release {
		now := time.Now()
		if m.lastTriggered[act] == nil {
			m.lastTriggered[act] = make(map[event.Type]time.Time)
		}
		lastTime := m.lastTriggered[act][evt]
		if now.Sub(lastTime) < debounceDuration {
			return
		}
		m.lastTriggered[act][evt] = now
	}

	if m.bus != nil {
		if joypadKey, ok := m.getJoypadKey(act); ok {
			switch evt {
			case event.Press:
				m.bus.HandleKeyPress(joypadKey)
			case event.Release:
				m.bus.HandleKeyRelease(joypadKey)
			}
			return
		}
	}

	if m.handlers[act] != nil {
		for _, callback := range m.handlers[act][evt] {
			callback()
		}
	}
}

// getJoypadKey maps a GB hardware action to its joypad key, reporting
// false for any action that isn't a hardware control.
func (m *Manager) getJoypadKey(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}
