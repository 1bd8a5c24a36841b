// Package action enumerates every input action the emulator recognizes,
// independent of which physical key or backend produced it.
package action

// Action identifies one input action, whether it maps to a Game Boy button
// or an emulator/debug feature.
type Action int

const (
	// Game Boy hardware controls.
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features.
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorStepInstruction
	EmulatorSnapshot
	EmulatorTestPatternCycle
	EmulatorQuit

	// Audio debugging.
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioShowStatus

	// Debug controls.
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

// Category groups actions for routing purposes.
type Category int

const (
	CategoryGameInput Category = iota
	CategoryEmulator
	CategoryBackend
	CategoryAudio
	CategoryDebug
)

// Info carries metadata about an action: its category, and whether rapid
// repeats should be debounced.
type Info struct {
	Action      Action
	Category    Category
	Debounce    bool
	Description string
}

var infoByAction = map[Action]Info{
	GBButtonA:      {GBButtonA, CategoryGameInput, false, "A button"},
	GBButtonB:      {GBButtonB, CategoryGameInput, false, "B button"},
	GBButtonStart:  {GBButtonStart, CategoryGameInput, false, "Start button"},
	GBButtonSelect: {GBButtonSelect, CategoryGameInput, false, "Select button"},
	GBDPadUp:       {GBDPadUp, CategoryGameInput, false, "D-Pad Up"},
	GBDPadDown:     {GBDPadDown, CategoryGameInput, false, "D-Pad Down"},
	GBDPadLeft:     {GBDPadLeft, CategoryGameInput, false, "D-Pad Left"},
	GBDPadRight:    {GBDPadRight, CategoryGameInput, false, "D-Pad Right"},

	EmulatorPauseToggle:      {EmulatorPauseToggle, CategoryEmulator, true, "Toggle pause"},
	EmulatorStepFrame:        {EmulatorStepFrame, CategoryEmulator, true, "Step one frame"},
	EmulatorStepInstruction:  {EmulatorStepInstruction, CategoryEmulator, true, "Step one instruction"},
	EmulatorSnapshot:         {EmulatorSnapshot, CategoryBackend, true, "Save state snapshot"},
	EmulatorTestPatternCycle: {EmulatorTestPatternCycle, CategoryBackend, true, "Cycle test patterns"},
	EmulatorQuit:             {EmulatorQuit, CategoryEmulator, true, "Quit"},

	AudioToggleChannel1: {AudioToggleChannel1, CategoryAudio, true, "Toggle audio channel 1"},
	AudioToggleChannel2: {AudioToggleChannel2, CategoryAudio, true, "Toggle audio channel 2"},
	AudioToggleChannel3: {AudioToggleChannel3, CategoryAudio, true, "Toggle audio channel 3"},
	AudioToggleChannel4: {AudioToggleChannel4, CategoryAudio, true, "Toggle audio channel 4"},
	AudioSoloChannel1:   {AudioSoloChannel1, CategoryAudio, true, "Solo audio channel 1"},
	AudioSoloChannel2:   {AudioSoloChannel2, CategoryAudio, true, "Solo audio channel 2"},
	AudioSoloChannel3:   {AudioSoloChannel3, CategoryAudio, true, "Solo audio channel 3"},
	AudioSoloChannel4:   {AudioSoloChannel4, CategoryAudio, true, "Solo audio channel 4"},
	AudioShowStatus:     {AudioShowStatus, CategoryAudio, true, "Show audio status"},

	DebugLogLevelIncrease: {DebugLogLevelIncrease, CategoryDebug, true, "Log level up"},
	DebugLogLevelDecrease: {DebugLogLevelDecrease, CategoryDebug, true, "Log level down"},
}

// GetInfo returns metadata for a, falling back to a non-debounced
// CategoryEmulator default for an action this table doesn't know about.
func GetInfo(a Action) Info {
	if info, ok := infoByAction[a]; ok {
		return info
	}
	return Info{Action: a, Category: CategoryEmulator, Debounce: false, Description: "unknown action"}
}
