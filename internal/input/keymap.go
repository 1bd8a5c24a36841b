package input

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haldis/gbcore/internal/input/action"
)

// actionNames maps a keymap file's action names to Action values. Kept
// short and stable for serialization, independent of action.Info's prose
// Description strings.
var actionNames = map[string]action.Action{
	"a":                action.GBButtonA,
	"b":                action.GBButtonB,
	"start":            action.GBButtonStart,
	"select":           action.GBButtonSelect,
	"up":               action.GBDPadUp,
	"down":             action.GBDPadDown,
	"left":             action.GBDPadLeft,
	"right":            action.GBDPadRight,
	"pause":            action.EmulatorPauseToggle,
	"step_frame":       action.EmulatorStepFrame,
	"step_instruction": action.EmulatorStepInstruction,
	"snapshot":         action.EmulatorSnapshot,
	"test_pattern":     action.EmulatorTestPatternCycle,
	"quit":             action.EmulatorQuit,
	"audio_toggle_1":   action.AudioToggleChannel1,
	"audio_toggle_2":   action.AudioToggleChannel2,
	"audio_toggle_3":   action.AudioToggleChannel3,
	"audio_toggle_4":   action.AudioToggleChannel4,
	"audio_solo_1":     action.AudioSoloChannel1,
	"audio_solo_2":     action.AudioSoloChannel2,
	"audio_solo_3":     action.AudioSoloChannel3,
	"audio_solo_4":     action.AudioSoloChannel4,
	"audio_status":     action.AudioShowStatus,
	"log_level_up":     action.DebugLogLevelIncrease,
	"log_level_down":   action.DebugLogLevelDecrease,
}

// keymapFile is the on-disk shape of a keymap override file: host key name
// (as reported by a backend, e.g. "z", "F9", "Up") to the action name it
// should trigger.
type keymapFile map[string]string

// LoadKeymapOverrides reads a YAML keymap file and merges its bindings into
// DefaultKeyMap, overriding any key name the file repeats and adding any it
// doesn't. Every recognized binding is applied even if the file also names
// an unknown action; in that case the unknown names are returned as a
// single error after the rest of the file has taken effect.
func LoadKeymapOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read keymap file: %w", err)
	}

	var overrides keymapFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse keymap file: %w", err)
	}

	var unknown []string
	for key, actName := range overrides {
		act, ok := actionNames[actName]
		if !ok {
			unknown = append(unknown, actName)
			continue
		}
		DefaultKeyMap[key] = act
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown action name(s) in keymap file: %v", unknown)
	}
	return nil
}
