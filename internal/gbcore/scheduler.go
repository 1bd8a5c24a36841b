package gbcore

import (
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/gbcore/errs"
	"github.com/haldis/gbcore/internal/input"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/state"
	"github.com/haldis/gbcore/internal/timing"
)

// actionHandler is the optional capability a Backend may implement for
// actions it owns entirely (audio mute/solo, PNG frame snapshots, test
// pattern cycling) rather than routing through the joypad or the
// scheduler's own control surface.
type actionHandler interface {
	HandleAction(act action.Action)
}

// SchedulerConfig holds everything the Scheduler needs beyond the Machine
// and Backend it's built from.
type SchedulerConfig struct {
	SavePath      string // cartridge external RAM save file, "" to disable
	StatePath     string // state snapshot file written on EmulatorSnapshot, "" to disable
	RestartOnStop bool
	Recorder      *Recorder
	Player        *Player
}

// Scheduler runs the top-level loop: drive the Machine one frame at a
// time, deliver the resulting framebuffer and collect input through a
// Backend, route input through input.Manager/Handler, and pace wall-clock
// time through a timing.Limiter. It is the single place spec.md's
// per-instruction ordering, input polling, and frame delivery come
// together.
type Scheduler struct {
	machine *Machine
	be      backend.Backend
	limiter timing.Limiter
	handler *input.Handler
	manager *input.Manager

	cfg SchedulerConfig

	ramWasEnabled bool
	quitRequested atomic.Bool
}

// RequestQuit asks the loop to exit cleanly after its current iteration,
// for an external shutdown signal (SIGINT/SIGTERM) a headless backend has
// no key binding to report through InputEvents.
func (s *Scheduler) RequestQuit() { s.quitRequested.Store(true) }

// NewScheduler builds a Scheduler. limiter paces wall-clock delivery;
// pass timing.NewNoOpLimiter() to run as fast as possible (useful for
// headless batch runs).
func NewScheduler(machine *Machine, be backend.Backend, limiter timing.Limiter, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		machine: machine,
		be:      be,
		limiter: limiter,
		handler: input.NewHandler(),
		manager: input.NewManager(machine),
		cfg:     cfg,
	}
}

// Run drives the scheduler loop until a quit is requested or the backend
// reports a fatal error. It returns nil on a clean EmulatorQuit/backend
// shutdown, and a non-nil error for anything else (a caller that set
// RestartOnStop never sees that error — it is logged, the machine is set
// back to Running and the loop continues; the machine is not reset and
// keeps its current state).
func (s *Scheduler) Run() error {
	defer s.flushSave()

	for {
		if s.quitRequested.Load() {
			return nil
		}

		s.injectReplayEvents()

		s.machine.RunFrame()

		frame := s.machine.FrameBuffer()
		events, err := s.be.Update(frame)
		if err != nil {
			if s.cfg.RestartOnStop {
				slog.Error("backend update failed, continuing", "error", err)
				s.machine.setState(Running)
				continue
			}
			return err
		}

		for _, evt := range events {
			if !s.handler.ProcessEvent(evt) {
				continue
			}
			if s.cfg.Recorder != nil {
				s.cfg.Recorder.Record(s.machine.FrameCount(), evt)
			}
			if quit := s.dispatch(evt); quit {
				return nil
			}
		}

		s.maybeFlushSave()
		s.limiter.WaitForNextFrame()
	}
}

func (s *Scheduler) injectReplayEvents() {
	if s.cfg.Player == nil {
		return
	}
	for _, evt := range s.cfg.Player.EventsForFrame(s.machine.FrameCount()) {
		s.dispatch(evt)
	}
}

// dispatch routes one input event to its handler, reporting whether it
// was (or completes) a shutdown request.
func (s *Scheduler) dispatch(evt backend.InputEvent) bool {
	switch evt.Action {
	case action.EmulatorQuit:
		if evt.Type == event.Press {
			slog.Info("shutdown requested", "reason", (&errs.ShutdownRequested{Reason: "EmulatorQuit"}).Error())
			return true
		}
		return false
	case action.EmulatorPauseToggle:
		if evt.Type == event.Press {
			s.machine.TogglePause()
		}
		return false
	case action.EmulatorStepInstruction:
		if evt.Type == event.Press {
			s.machine.StepInstruction()
		}
		return false
	case action.EmulatorStepFrame:
		if evt.Type == event.Press {
			s.machine.StepFrame()
		}
		return false
	case action.EmulatorSnapshot:
		if evt.Type == event.Press {
			s.saveState()
		}
	}

	info := action.GetInfo(evt.Action)
	if info.Category == action.CategoryGameInput {
		s.manager.Trigger(evt.Action, evt.Type)
		return false
	}

	if evt.Type != event.Press {
		return false
	}
	if handler, ok := s.be.(actionHandler); ok {
		handler.HandleAction(evt.Action)
	}
	return false
}

// saveState writes a full state snapshot to cfg.StatePath, the binary
// layout internal/state implements, distinct from a backend's own PNG
// frame-snapshot export (both are bound to the same EmulatorSnapshot
// action, since one hotkey covers "save exactly where I am" in both
// senses).
func (s *Scheduler) saveState() {
	if s.cfg.StatePath == "" {
		return
	}
	data := state.Save(s.machine.Bus(), s.machine.CPU())
	if err := os.WriteFile(s.cfg.StatePath, data, 0o644); err != nil {
		slog.Error("state snapshot write failed", "error", (&errs.StateIOFailure{Path: s.cfg.StatePath, Err: err}).Error())
		return
	}
	slog.Info("state snapshot saved", "path", s.cfg.StatePath)
}

// LoadState restores the machine from a snapshot at path, for --load-state
// at startup. Failure here is fatal, per the error taxonomy.
func (s *Scheduler) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &errs.StateIOFailure{Path: path, Err: err}
	}
	if err := state.Load(data, s.machine.Bus(), s.machine.CPU()); err != nil {
		return &errs.StateIOFailure{Path: path, Err: err}
	}
	return nil
}

// maybeFlushSave flushes the cartridge's external RAM to cfg.SavePath on
// the RAM-enable latch's falling edge, matching the "save collaborator
// only sees state through explicit flushes" contract.
func (s *Scheduler) maybeFlushSave() {
	enabled := s.machine.Bus().CartRAMEnabled()
	if s.ramWasEnabled && !enabled {
		s.flushSave()
	}
	s.ramWasEnabled = enabled
}

func (s *Scheduler) flushSave() {
	if s.cfg.SavePath == "" {
		return
	}
	data := s.machine.Bus().ExternalRAM()
	if len(data) == 0 {
		return
	}
	if err := os.WriteFile(s.cfg.SavePath, data, 0o644); err != nil {
		slog.Error("save file flush failed", "error", (&errs.SaveIOFailure{Path: s.cfg.SavePath, Err: err}).Error())
		return
	}
	slog.Debug("save file flushed", "path", s.cfg.SavePath)
}
