package headless_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/backend/headless"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/video"
)

func TestHeadlessBackendNormalOperation(t *testing.T) {
	h := headless.New(3, headless.SnapshotConfig{})

	err := h.Init(backend.Config{Title: "Test"})
	assert.NoError(t, err)

	frame := video.NewFrameBuffer()

	for i := 0; i < 3; i++ {
		events, err := h.Update(frame)
		assert.NoError(t, err)

		if i < 2 {
			assert.Empty(t, events)
		} else {
			assert.Len(t, events, 1)
			assert.Equal(t, action.EmulatorQuit, events[0].Action)
			assert.Equal(t, event.Press, events[0].Type)
		}
	}

	assert.NoError(t, h.Cleanup())
}

func TestHeadlessBackendTestPatternMode(t *testing.T) {
	h := headless.New(1, headless.SnapshotConfig{})

	err := h.Init(backend.Config{Title: "Test", TestPattern: true})
	assert.NoError(t, err)

	frame := video.NewFrameBuffer()

	events, err := h.Update(frame)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, action.EmulatorQuit, events[0].Action)

	assert.NoError(t, h.Cleanup())
}

func TestHeadlessBackendSavesSnapshotOnInterval(t *testing.T) {
	dir := t.TempDir()
	h := headless.New(2, headless.SnapshotConfig{
		Enabled:   true,
		Interval:  1,
		Directory: dir,
		ROMName:   "test",
		Scale:     2,
	})

	require.NoError(t, h.Init(backend.Config{Title: "Test"}))

	frame := video.NewFrameBuffer()
	frame.Clear()

	_, err := h.Update(frame)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "expected at least one snapshot file")

	for _, e := range entries {
		assert.Equal(t, ".png", filepath.Ext(e.Name()))
	}
}

func TestHeadlessImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*headless.Backend)(nil)
}
