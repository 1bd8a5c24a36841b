//go:build sdl2

package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/video"
)

func TestSDL2BackendInitAndUpdate(t *testing.T) {
	b := New()
	err := b.Init(backend.Config{Title: "test", Scale: 1})
	require.NoError(t, err)
	defer b.Cleanup()

	frame := video.NewFrameBuffer()
	events, err := b.Update(frame)
	assert.NoError(t, err)
	assert.Empty(t, events, "no SDL input was injected")
}

func TestHandleKeyDownSendsPressThenHold(t *testing.T) {
	b := New()

	press := b.handleKeyDown(sdl.K_z, 0)
	require.Len(t, press, 1)
	assert.Equal(t, action.GBButtonA, press[0].Action)
	assert.Equal(t, event.Press, press[0].Type)

	hold := b.handleKeyDown(sdl.K_z, 1)
	require.Len(t, hold, 1)
	assert.Equal(t, event.Hold, hold[0].Type)
}

func TestHandleKeyUpOnlyReleasesGBActions(t *testing.T) {
	b := New()

	release := b.handleKeyUp(sdl.K_z)
	require.Len(t, release, 1)
	assert.Equal(t, action.GBButtonA, release[0].Action)
	assert.Equal(t, event.Release, release[0].Type)

	assert.Empty(t, b.handleKeyUp(sdl.K_F1), "non-GB actions don't emit release events")
}

func TestHandleKeyDownUnmappedKeyIsIgnored(t *testing.T) {
	b := New()
	assert.Nil(t, b.handleKeyDown(sdl.K_UNKNOWN, 0))
}

func TestGBColorToRGBAMapsCanonicalShades(t *testing.T) {
	r, g, bl, a := gbColorToRGBA(uint32(video.WhiteColor))
	assert.Equal(t, uint8(0xFF), r)
	assert.Equal(t, uint8(0xFF), g)
	assert.Equal(t, uint8(0xFF), bl)
	assert.Equal(t, uint8(0xFF), a)

	r, g, bl, a = gbColorToRGBA(uint32(video.BlackColor))
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), bl)
	assert.Equal(t, uint8(0xFF), a)
}

func TestImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
}
