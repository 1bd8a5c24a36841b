// Package terminal implements a Backend that renders to any ANSI terminal
// via tcell, using stacked half-block characters to approximate the DMG's
// 160x144 display at roughly half vertical resolution.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/backend/terminal/render"
	"github.com/haldis/gbcore/internal/disasm"
	"github.com/haldis/gbcore/internal/input"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	registerPanelHeight = 9
	disasmPanelHeight   = 12
	minTermWidth        = 80
	minTermHeight       = 24

	// keyTimeout is slightly longer than a typical terminal key-repeat
	// interval, so a held key reads as a continuous Hold rather than
	// Press/Release/Press/Release noise.
	keyTimeout = 100 * time.Millisecond
)

// Backend renders the emulator to a terminal using tcell.
type Backend struct {
	screen  tcell.Screen
	running bool
	config  backend.Config

	logBuffer *render.LogBuffer
	logLevel  slog.Level

	eventQueue []backend.InputEvent
	keyStates  map[action.Action]time.Time
	activeKeys map[action.Action]bool

	testPatternFrame *video.FrameBuffer
	testPatternType  int
	testFrameCount   int
}

func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.eventQueue = nil
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	t.screen = screen
	t.running = true

	t.logBuffer = render.NewLogBuffer(200)
	slog.SetDefault(slog.New(render.NewHandler(t.logBuffer, slog.LevelDebug)))

	if config.TestPattern {
		t.testPatternFrame = video.NewFrameBuffer()
		t.generateTestPattern(0)
		slog.Info("terminal backend started in test pattern mode")
	} else {
		slog.Info("terminal backend started")
	}

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()

	return nil
}

func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	now := time.Now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	currentlyActive := make(map[action.Action]bool)
	for act, lastPressed := range t.keyStates {
		if action.GetInfo(act).Category != action.CategoryGameInput {
			continue
		}
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		currentlyActive[act] = true
		if !t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		}
	}
	for act := range t.activeKeys {
		if !currentlyActive[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	t.activeKeys = currentlyActive

	if len(t.eventQueue) > 0 {
		events = append(events, t.eventQueue...)
		t.eventQueue = nil
	}

	if !t.running {
		return events, nil
	}

	renderFrame := frame
	if t.config.TestPattern {
		t.testFrameCount++
		renderFrame = t.testPatternFrame
	}

	t.render(renderFrame)
	t.screen.Show()

	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		slog.Info("terminal backend shutting down")
		t.screen.Fini()
	}
	return nil
}

// HandleAction applies a backend-local action that isn't a GB hardware
// control — these never reach the joypad, so the caller is expected to
// have routed them here rather than through input.Manager.
func (t *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorTestPatternCycle:
		if t.config.TestPattern {
			t.testPatternType = (t.testPatternType + 1) % 4
			t.generateTestPattern(t.testPatternType)
		}
	case action.DebugLogLevelIncrease:
		t.changeLogLevel(1)
	case action.DebugLogLevelDecrease:
		t.changeLogLevel(-1)
	}
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	<-signals
	t.running = false
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
}

var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF1:     "F1",
	tcell.KeyF2:     "F2",
	tcell.KeyF3:     "F3",
	tcell.KeyF4:     "F4",
	tcell.KeyF5:     "F5",
	tcell.KeyF9:     "F9",
	tcell.KeyF12:    "F12",
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	var act action.Action
	var ok bool

	if name, named := tcellKeyNames[ev.Key()]; named {
		act, ok = input.GetDefaultMapping(name)
	} else if ev.Key() == tcell.KeyRune {
		act, ok = input.GetDefaultMapping(string(ev.Rune()))
	} else if ev.Key() == tcell.KeyCtrlC {
		act, ok = action.EmulatorQuit, true
	}

	if !ok {
		return
	}

	if act == action.EmulatorQuit {
		t.running = false
	}

	info := action.GetInfo(act)
	if info.Category == action.CategoryGameInput {
		if isDPad(act) {
			delete(t.keyStates, action.GBDPadUp)
			delete(t.keyStates, action.GBDPadDown)
			delete(t.keyStates, action.GBDPadLeft)
			delete(t.keyStates, action.GBDPadRight)
		}
		t.keyStates[act] = now
		return
	}

	// Test pattern cycling and log level are purely terminal-display
	// concerns; everything else (including state snapshots) is queued
	// for the scheduler to interpret.
	if act == action.EmulatorTestPatternCycle || act == action.DebugLogLevelIncrease || act == action.DebugLogLevelDecrease {
		t.HandleAction(act)
		return
	}

	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
}

func isDPad(act action.Action) bool {
	switch act {
	case action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight:
		return true
	default:
		return false
	}
}

func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	idx := 1
	for i, l := range levels {
		if l == t.logLevel {
			idx = i
			break
		}
	}
	idx += direction
	if idx < 0 {
		idx = 0
	}
	if idx >= len(levels) {
		idx = len(levels) - 1
	}
	t.logLevel = levels[idx]
}

func (t *Backend) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		msg := fmt.Sprintf("terminal too small, need at least %dx%d", minTermWidth, minTermHeight)
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	t.screen.Clear()

	dividerX := width + 2
	t.drawGameBoy(frame)
	for y := 0; y < termHeight; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, tcell.StyleDefault)
	}

	panelX := dividerX + 2
	panelWidth := termWidth - panelX
	if panelWidth < 0 {
		panelWidth = 0
	}

	logsY := 1
	if t.config.ShowDebug && t.config.DebugProvider != nil {
		t.drawRegisters(panelX, 1, panelWidth)
		t.drawDisassembly(panelX, registerPanelHeight+2, panelWidth)
		logsY = registerPanelHeight + disasmPanelHeight + 3
	}
	t.drawLogs(panelX, logsY, panelWidth, termHeight)
}

func (t *Backend) drawGameBoy(frame *video.FrameBuffer) {
	data := frame.ToSlice()
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := render.PixelToShade(data[y*width+x])
			bottom := 3
			if y+1 < height {
				bottom = render.PixelToShade(data[(y+1)*width+x])
			}
			char := render.HalfBlockChar(top, bottom)
			fg, bg := shadeColors(top, bottom)
			t.screen.SetContent(x, y/2+1, char, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
}

func shadeColors(topShade, bottomShade int) (tcell.Color, tcell.Color) {
	shades := [4]tcell.Color{tcell.ColorBlack, tcell.ColorGray, tcell.ColorSilver, tcell.ColorWhite}
	if topShade == bottomShade {
		return shades[topShade], tcell.ColorDefault
	}
	return shades[topShade], shades[bottomShade]
}

func (t *Backend) drawRegisters(x, y, w int) {
	snap := t.config.DebugProvider.CPUSnapshot()
	ie, iff := t.config.DebugProvider.InterruptFlags()

	lines := []string{
		fmt.Sprintf("B:%02X C:%02X D:%02X E:%02X", snap.Registers[0], snap.Registers[1], snap.Registers[2], snap.Registers[3]),
		fmt.Sprintf("H:%02X L:%02X A:%02X F:%02X", snap.Registers[4], snap.Registers[5], snap.Registers[6], snap.Registers[7]),
		fmt.Sprintf("PC:%04X SP:%04X", snap.PC, snap.SP),
		fmt.Sprintf("IME:%v IE:%02X IF:%02X", snap.IME, ie, iff),
		fmt.Sprintf("Halted:%v", snap.Halted),
	}
	t.drawLines(x, y, w, lines, tcell.StyleDefault.Foreground(tcell.ColorBlue))
}

func (t *Backend) drawDisassembly(x, y, w int) {
	snap := t.config.DebugProvider.CPUSnapshot()
	lines := t.config.DebugProvider.Disassembly(snap.PC, 0, disasmPanelHeight-1)

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	current := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, l := range lines {
		if i >= disasmPanelHeight {
			break
		}
		text := disasm.FormatLine(l, l.Address == snap.PC)
		useStyle := style
		if l.Address == snap.PC {
			useStyle = current
		}
		t.drawLine(x, y+i, w, text, useStyle)
	}
}

func (t *Backend) drawLogs(x, y, w, termHeight int) {
	available := termHeight - y - 1
	if available <= 0 {
		return
	}
	entries := t.logBuffer.GetRecent(available * 2)
	shown := 0
	for _, e := range entries {
		if e.Level < t.logLevel {
			continue
		}
		t.drawLine(x, y+shown, w, render.FormatEntry(e), logStyle(e.Level))
		shown++
		if shown >= available {
			break
		}
	}
}

func logStyle(level slog.Level) tcell.Style {
	switch level {
	case slog.LevelDebug:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	case slog.LevelWarn:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case slog.LevelError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue)
	}
}

func (t *Backend) drawLines(x, y, w int, lines []string, style tcell.Style) {
	for i, line := range lines {
		t.drawLine(x, y+i, w, line, style)
	}
}

func (t *Backend) drawLine(x, y, w int, text string, style tcell.Style) {
	if w <= 0 {
		return
	}
	if len(text) > w {
		text = text[:w]
	}
	for i, ch := range text {
		if i >= w {
			break
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}

func (t *Backend) generateTestPattern(patternType int) {
	const tileSize = 8
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			var color video.GBColor
			switch patternType {
			case 0:
				if ((x/tileSize)+(y/tileSize))%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.BlackColor
				}
			case 1:
				if (x/tileSize)%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.DarkGreyColor
				}
			case 2:
				if (y/tileSize)%2 == 0 {
					color = video.LightGreyColor
				} else {
					color = video.DarkGreyColor
				}
			default:
				if ((x+y)/tileSize)%2 == 0 {
					color = video.LightGreyColor
				} else {
					color = video.DarkGreyColor
				}
			}
			t.testPatternFrame.SetPixel(x, y, color)
		}
	}
}

var _ backend.Backend = (*Backend)(nil)
