package input

import (
	"time"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
)

// Handler applies debouncing to a raw stream of backend InputEvents, ahead
// of any routing through a Manager.
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  300 * time.Millisecond,
	}
}

// ProcessEvent reports whether evt should be handled, debouncing rapid
// Press/Release repeats of the same action when its action.Info has
// Debounce set (Game Boy buttons do not). Hold events always pass.
func (h *Handler) ProcessEvent(evt backend.InputEvent) bool {
	if (evt.Type == event.Press || evt.Type == event.Release) && action.GetInfo(evt.Action).Debounce {
		now := time.Now()
		if lastTime, exists := h.lastActionTime[evt.Action]; exists {
			if now.Sub(lastTime) < h.debounceDelay {
				return false
			}
		}
		h.lastActionTime[evt.Action] = now
	}

	return true
}
