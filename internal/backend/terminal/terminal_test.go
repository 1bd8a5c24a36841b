package terminal

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/backend/terminal/render"
	"github.com/haldis/gbcore/internal/disasm"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/video"
)

// newTestBackend builds a Backend wired to a SimulationScreen, bypassing
// Init's real-terminal setup so these tests run headless.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	screen.SetSize(minTermWidth, minTermHeight)

	return &Backend{
		screen:     screen,
		running:    true,
		logLevel:   slog.LevelInfo,
		logBuffer:  render.NewLogBuffer(32),
		keyStates:  make(map[action.Action]time.Time),
		activeKeys: make(map[action.Action]bool),
	}
}

func TestTerminalRendersWithoutPanicking(t *testing.T) {
	b := newTestBackend(t)
	frame := video.NewFrameBuffer()
	frame.Clear()

	_, err := b.Update(frame)
	assert.NoError(t, err)
}

func TestTerminalTooSmallShowsWarning(t *testing.T) {
	b := newTestBackend(t)
	b.screen.(tcell.SimulationScreen).SetSize(10, 10)

	frame := video.NewFrameBuffer()
	_, err := b.Update(frame)
	assert.NoError(t, err)
}

type fakeDebugProvider struct {
	mem [0x10000]uint8
}

func (f *fakeDebugProvider) CPUSnapshot() backend.CPUSnapshot {
	return backend.CPUSnapshot{PC: 0x100, SP: 0xFFFE, IME: true}
}

func (f *fakeDebugProvider) InterruptFlags() (uint8, uint8) { return 0x1F, 0x01 }

func (f *fakeDebugProvider) Disassembly(pc uint16, before, after int) []disasm.Line {
	return disasm.DisassembleRange(pc, after+1, f)
}

func (f *fakeDebugProvider) Read(address uint16) uint8 { return f.mem[address] }

func TestTerminalRendersDebugPanelWhenEnabled(t *testing.T) {
	b := newTestBackend(t)
	b.config = backend.Config{ShowDebug: true, DebugProvider: &fakeDebugProvider{}}

	frame := video.NewFrameBuffer()
	_, err := b.Update(frame)
	assert.NoError(t, err)
}

func TestTerminalImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
}
