//go:build sdl2

// Package sdl2 implements the emulator's backend.Backend interface with a
// real SDL2 window, renderer, and audio device.
package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/backend/headless"
	"github.com/haldis/gbcore/internal/input"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/video"
)

const (
	defaultScale    = 4
	bytesPerPixel   = 4
	audioSampleRate = 65536 // matches audio.SampleRate, the APU's native output rate
	audioBufferSize = 1024
	// targetQueueSamples is how many stereo frames stay queued on the
	// device; at 65,536 Hz this is about 30ms of latency.
	targetQueueSamples = 2048
	bytesPerFrame      = 8 // stereo, 4 bytes (float32) per channel
)

// Backend drives an SDL2 window for the Game Boy framebuffer and, when an
// audio.Provider is wired in through backend.Config, an SDL2 audio device.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	config   backend.Config

	testPatternFrame *video.FrameBuffer
	testPatternType  int
	testFrameCount   int
	currentFrame     *video.FrameBuffer

	audioDevice sdl.AudioDeviceID

	pixelBuffer []byte
	eventBuffer []backend.InputEvent
}

func New() *Backend {
	return &Backend{}
}

func (s *Backend) Init(config backend.Config) error {
	s.config = config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("initialize SDL2: %w", err)
	}

	scale := config.Scale
	if scale <= 0 {
		scale = defaultScale
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale),
		int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("create texture: %w", err)
	}
	s.texture = texture
	s.window.Show()

	s.pixelBuffer = make([]byte, video.FramebufferWidth*video.FramebufferHeight*bytesPerPixel)
	s.eventBuffer = make([]backend.InputEvent, 0, 10)
	s.running = true

	if config.APU != nil && !config.TestPattern {
		if err := s.initAudio(); err != nil {
			slog.Warn("failed to initialize SDL2 audio", "error", err)
		}
	}

	if config.TestPattern {
		s.testPatternFrame = video.NewFrameBuffer()
		s.generateTestPattern(0)
		slog.Info("sdl2 backend initialized in test pattern mode")
	} else {
		slog.Info("sdl2 backend initialized")
	}

	return nil
}

func (s *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	s.eventBuffer = s.eventBuffer[:0]

	for evt := sdl.PollEvent(); evt != nil; evt = sdl.PollEvent() {
		if evts := s.handleEvent(evt); evts != nil {
			s.eventBuffer = append(s.eventBuffer, evts...)
		}
	}

	if !s.running {
		return s.eventBuffer, nil
	}

	renderFrame := frame
	if s.config.TestPattern {
		s.testFrameCount++
		if s.testFrameCount%30 == 0 {
			s.animateTestPattern()
		}
		renderFrame = s.testPatternFrame
	}

	s.currentFrame = renderFrame
	s.renderFrame(renderFrame)

	if s.audioDevice != 0 && s.config.APU != nil {
		s.queueAudioSamples()
	}

	return s.eventBuffer, nil
}

func (s *Backend) Cleanup() error {
	slog.Info("cleaning up sdl2 backend")

	if s.audioDevice != 0 {
		sdl.CloseAudioDevice(s.audioDevice)
	}
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *Backend) handleEvent(evt sdl.Event) []backend.InputEvent {
	switch e := evt.(type) {
	case *sdl.QuitEvent:
		s.running = false
		return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			return s.handleKeyDown(e.Keysym.Sym, e.Repeat)
		}
		if e.Type == sdl.KEYUP {
			return s.handleKeyUp(e.Keysym.Sym)
		}
	}
	return nil
}

func (s *Backend) handleKeyDown(key sdl.Keycode, repeat uint8) []backend.InputEvent {
	name, ok := sdlKeyNames[key]
	if !ok {
		return nil
	}
	act, ok := input.GetDefaultMapping(name)
	if !ok {
		return nil
	}
	if repeat == 0 {
		return []backend.InputEvent{{Action: act, Type: event.Press}}
	}
	return []backend.InputEvent{{Action: act, Type: event.Hold}}
}

func (s *Backend) handleKeyUp(key sdl.Keycode) []backend.InputEvent {
	name, ok := sdlKeyNames[key]
	if !ok {
		return nil
	}
	act, ok := input.GetDefaultMapping(name)
	if !ok {
		return nil
	}
	switch act {
	case action.GBButtonA, action.GBButtonB, action.GBButtonStart, action.GBButtonSelect,
		action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight:
		return []backend.InputEvent{{Action: act, Type: event.Release}}
	}
	return nil
}

func (s *Backend) renderFrame(frame *video.FrameBuffer) {
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			srcIdx := y*video.FramebufferWidth + x
			dstIdx := srcIdx * bytesPerPixel

			r, g, b, a := gbColorToRGBA(frame.GetPixel(x, y))

			// ABGR byte order for little-endian RGBA8888.
			s.pixelBuffer[dstIdx] = a
			s.pixelBuffer[dstIdx+1] = b
			s.pixelBuffer[dstIdx+2] = g
			s.pixelBuffer[dstIdx+3] = r
		}
	}

	s.texture.Update(nil, unsafe.Pointer(&s.pixelBuffer[0]), video.FramebufferWidth*bytesPerPixel)

	s.renderer.SetDrawColor(0, 0, 0, 255)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}

func gbColorToRGBA(pixel uint32) (r, g, b, a uint8) {
	switch video.GBColor(pixel) {
	case video.WhiteColor:
		return 0xFF, 0xFF, 0xFF, 0xFF
	case video.LightGreyColor:
		return 0xAA, 0xAA, 0xAA, 0xFF
	case video.DarkGreyColor:
		return 0x55, 0x55, 0x55, 0xFF
	case video.BlackColor:
		return 0, 0, 0, 0xFF
	}
	red := uint8(pixel >> 16)
	return red, red, red, 0xFF
}

func (s *Backend) saveSnapshot() {
	if s.currentFrame == nil {
		return
	}
	if err := headless.SaveFramePNG(s.currentFrame, "snapshot", s.config.SnapshotDir, 1); err != nil {
		slog.Warn("failed to save snapshot", "error", err)
	}
}

func (s *Backend) cycleTestPattern() {
	if !s.config.TestPattern {
		return
	}
	s.testPatternType = (s.testPatternType + 1) % 4
	s.generateTestPattern(s.testPatternType)
}

func (s *Backend) generateTestPattern(patternType int) {
	const tileSize = 8
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			var color video.GBColor
			switch patternType {
			case 0: // checkerboard
				if ((x/tileSize)+(y/tileSize))%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.BlackColor
				}
			case 1: // gradient
				switch x * 4 / video.FramebufferWidth {
				case 0:
					color = video.BlackColor
				case 1:
					color = video.DarkGreyColor
				case 2:
					color = video.LightGreyColor
				default:
					color = video.WhiteColor
				}
			case 2: // vertical stripes
				if (x/tileSize)%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.DarkGreyColor
				}
			case 3: // diagonal
				if ((x+y)/tileSize)%2 == 0 {
					color = video.LightGreyColor
				} else {
					color = video.DarkGreyColor
				}
			}
			s.testPatternFrame.SetPixel(x, y, color)
		}
	}
}

func (s *Backend) animateTestPattern() {
	frame := s.testFrameCount / 30
	const tileSize = 8
	switch s.testPatternType {
	case 2:
		for y := 0; y < video.FramebufferHeight; y++ {
			for x := 0; x < video.FramebufferWidth; x++ {
				var color video.GBColor
				if ((x+frame)/tileSize)%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.DarkGreyColor
				}
				s.testPatternFrame.SetPixel(x, y, color)
			}
		}
	case 3:
		for y := 0; y < video.FramebufferHeight; y++ {
			for x := 0; x < video.FramebufferWidth; x++ {
				var color video.GBColor
				if ((x+y+frame)/tileSize)%2 == 0 {
					color = video.LightGreyColor
				} else {
					color = video.DarkGreyColor
				}
				s.testPatternFrame.SetPixel(x, y, color)
			}
		}
	}
}

// HandleAction processes backend-local actions that don't go through the
// joypad or the scheduler's event queue.
func (s *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorSnapshot:
		s.saveSnapshot()
	case action.EmulatorTestPatternCycle:
		s.cycleTestPattern()
	case action.AudioToggleChannel1:
		s.toggleChannel(1)
	case action.AudioToggleChannel2:
		s.toggleChannel(2)
	case action.AudioToggleChannel3:
		s.toggleChannel(3)
	case action.AudioToggleChannel4:
		s.toggleChannel(4)
	case action.AudioSoloChannel1:
		s.soloChannel(1)
	case action.AudioSoloChannel2:
		s.soloChannel(2)
	case action.AudioSoloChannel3:
		s.soloChannel(3)
	case action.AudioSoloChannel4:
		s.soloChannel(4)
	case action.AudioShowStatus:
		s.logAudioStatus()
	}
}

func (s *Backend) toggleChannel(ch int) {
	if s.config.APU != nil {
		s.config.APU.ToggleChannel(ch)
	}
}

func (s *Backend) soloChannel(ch int) {
	if s.config.APU != nil {
		s.config.APU.SoloChannel(ch)
	}
}

func (s *Backend) logAudioStatus() {
	if s.config.APU == nil {
		return
	}
	c1, c2, c3, c4 := s.config.APU.GetChannelStatus()
	slog.Info("audio channel status", "ch1", c1, "ch2", c2, "ch3", c3, "ch4", c4)
}

// queueAudioSamples drains the APU's interleaved stereo f32 buffer
// straight onto the SDL audio device; the APU already produces one L/R
// pair per frame, so there's no duplication or format conversion to do.
func (s *Backend) queueAudioSamples() {
	queuedBytes := sdl.GetQueuedAudioSize(s.audioDevice)
	const targetBytes = targetQueueSamples * bytesPerFrame
	if queuedBytes >= targetBytes {
		return
	}

	framesToGet := int((targetBytes - queuedBytes) / bytesPerFrame)
	samples := s.config.APU.GetSamples(framesToGet)
	if len(samples) == 0 {
		return
	}

	buf := (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[: len(samples)*4 : len(samples)*4]
	sdl.QueueAudio(s.audioDevice, buf)
}

func (s *Backend) initAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     audioSampleRate,
		Format:   sdl.AUDIO_F32SYS,
		Channels: 2,
		Samples:  audioBufferSize,
	}

	deviceID, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	s.audioDevice = deviceID
	sdl.PauseAudioDevice(deviceID, false)
	return nil
}

var _ backend.Backend = (*Backend)(nil)
