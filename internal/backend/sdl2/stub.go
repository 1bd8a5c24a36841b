//go:build !sdl2

package sdl2

import (
	"errors"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/video"
)

// Backend stubs out the SDL2 backend for builds without SDL2 development
// libraries available. Every method reports that SDL2 support isn't
// compiled in.
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (s *Backend) Init(backend.Config) error {
	return errors.New("sdl2 backend not available: build with -tags sdl2")
}

func (s *Backend) Update(*video.FrameBuffer) ([]backend.InputEvent, error) {
	return nil, errors.New("sdl2 backend not available: build with -tags sdl2")
}

func (s *Backend) Cleanup() error {
	return nil
}

var _ backend.Backend = (*Backend)(nil)
