package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
)

func TestHandlerDebouncing(t *testing.T) {
	tests := []struct {
		name           string
		action         action.Action
		eventType      event.Type
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{
			name:           "UI action rapid press is debounced",
			action:         action.EmulatorSnapshot,
			eventType:      event.Press,
			timeBetween:    100 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "UI action slow press is not debounced",
			action:         action.EmulatorSnapshot,
			eventType:      event.Press,
			timeBetween:    400 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "Game Boy button rapid press is not debounced",
			action:         action.GBButtonA,
			eventType:      event.Press,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "Hold events are never debounced",
			action:         action.EmulatorSnapshot,
			eventType:      event.Hold,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler()

			evt1 := backend.InputEvent{Action: tt.action, Type: tt.eventType}
			assert.True(t, handler.ProcessEvent(evt1), "first event should always pass")

			time.Sleep(tt.timeBetween)

			evt2 := backend.InputEvent{Action: tt.action, Type: tt.eventType}
			result := handler.ProcessEvent(evt2)

			if tt.expectDebounce {
				assert.False(t, result, "second event should be debounced")
			} else {
				assert.True(t, result, "second event should not be debounced")
			}
		})
	}
}

func TestHandlerTracksActionsIndependently(t *testing.T) {
	handler := NewHandler()

	evt1 := backend.InputEvent{Action: action.EmulatorSnapshot, Type: event.Press}
	evt2 := backend.InputEvent{Action: action.EmulatorTestPatternCycle, Type: event.Press}

	assert.True(t, handler.ProcessEvent(evt1))
	assert.True(t, handler.ProcessEvent(evt2))

	assert.False(t, handler.ProcessEvent(evt1), "rapid repeat of first action is debounced")
	assert.False(t, handler.ProcessEvent(evt2), "rapid repeat of second action is debounced")
}
