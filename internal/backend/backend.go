// Package backend defines the pluggable front-end contract: rendering a
// frame, collecting input, and reporting platform events back to the
// scheduler. Concrete backends live in the headless, terminal, and sdl2
// subpackages.
package backend

import (
	"github.com/haldis/gbcore/internal/audio"
	"github.com/haldis/gbcore/internal/disasm"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/video"
)

// InputEvent is a platform-independent input transition reported by a
// backend's Update call.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Backend is a complete emulator front-end: it renders frames to its
// output and captures platform-specific input, translated to InputEvents.
type Backend interface {
	// Init configures the backend. Must be called before Update.
	Init(config Config) error

	// Update renders frame (or a test pattern, if configured) and returns
	// the InputEvents collected since the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases backend resources on shutdown.
	Cleanup() error
}

// Config holds the options a Backend.Init call needs.
type Config struct {
	Title         string
	Scale         int
	VSync         bool
	Fullscreen    bool
	ShowDebug     bool
	TestPattern   bool
	APU           audio.Provider
	SnapshotDir   string
	DebugProvider DebugDataProvider
}

// CPUSnapshot is a point-in-time read of CPU state for display, not a
// state-snapshot restore payload (see internal/state for that).
type CPUSnapshot struct {
	Registers [8]uint8 // B, C, D, E, H, L, A, F
	PC, SP    uint16
	IME       bool
	Halted    bool
}

// DebugDataProvider is the minimal slice of emulator state a debug view
// needs, kept narrow so backends don't depend on the whole scheduler.
type DebugDataProvider interface {
	CPUSnapshot() CPUSnapshot
	InterruptFlags() (ie, iff uint8)
	Disassembly(aroundPC uint16, before, after int) []disasm.Line
	Read(address uint16) uint8
}
