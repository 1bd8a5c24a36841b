package input

import "github.com/haldis/gbcore/internal/input/action"

// DefaultKeyMap provides default key mappings shared across backends. A
// backend can use it as a base and override or extend entries as needed.
var DefaultKeyMap = map[string]action.Action{
	// Game Boy controls.
	"z":      action.GBButtonA,
	"x":      action.GBButtonB,
	"Enter":  action.GBButtonStart,
	"Shift":  action.GBButtonSelect,
	"Select": action.GBButtonSelect,
	"Up":     action.GBDPadUp,
	"Down":   action.GBDPadDown,
	"Left":   action.GBDPadLeft,
	"Right":  action.GBDPadRight,

	// WASD as an alternative d-pad.
	"w": action.GBDPadUp,
	"s": action.GBDPadDown,
	"a": action.GBDPadLeft,
	"d": action.GBDPadRight,

	// Emulator controls.
	"Space":  action.EmulatorPauseToggle,
	"p":      action.EmulatorPauseToggle,
	"o":      action.EmulatorStepFrame,
	"f":      action.EmulatorStepFrame,
	"i":      action.EmulatorStepInstruction,
	"n":      action.EmulatorStepInstruction,
	"F9":     action.EmulatorSnapshot,
	"F12":    action.EmulatorTestPatternCycle,
	"Escape": action.EmulatorQuit,
	"q":      action.EmulatorQuit,

	// Audio debug controls.
	"F1": action.AudioToggleChannel1,
	"F2": action.AudioToggleChannel2,
	"F3": action.AudioToggleChannel3,
	"F4": action.AudioToggleChannel4,
	"1":  action.AudioSoloChannel1,
	"2":  action.AudioSoloChannel2,
	"3":  action.AudioSoloChannel3,
	"4":  action.AudioSoloChannel4,
	"F5": action.AudioShowStatus,

	// Debug controls.
	"+": action.DebugLogLevelIncrease,
	"=": action.DebugLogLevelIncrease,
	"-": action.DebugLogLevelDecrease,
	"_": action.DebugLogLevelDecrease,
}

// GetDefaultMapping returns the default action bound to key, if any.
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}
