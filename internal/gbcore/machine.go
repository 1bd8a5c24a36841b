// Package gbcore implements the cycle-driven scheduler tying the CPU,
// memory bus, PPU, and APU together into a running machine, and the
// debugger-style pause/step control surface the host harness drives it
// through.
package gbcore

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/haldis/gbcore/internal/addr"
	"github.com/haldis/gbcore/internal/audio"
	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/cpu"
	"github.com/haldis/gbcore/internal/disasm"
	"github.com/haldis/gbcore/internal/memory"
	"github.com/haldis/gbcore/internal/video"
)

// cyclesPerFrame is the exact T-cycle length of one video frame: 154 lines
// of 456 dots each.
const cyclesPerFrame = 70224

// DebuggerState is the machine's run mode: normal execution, paused, or
// single-step (by instruction or by frame).
type DebuggerState int

const (
	Running DebuggerState = iota
	Paused
	Stepping
	SteppingFrame
)

func (s DebuggerState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	case SteppingFrame:
		return "stepping-frame"
	default:
		return "unknown"
	}
}

// Machine wires one CPU, bus, PPU, and APU into a single emulated console.
// It is not thread-safe except for the debugger-state fields, which a
// backend's input-handling goroutine may touch concurrently with the
// scheduler loop.
type Machine struct {
	cpu *cpu.CPU
	bus *memory.Bus
	ppu *video.PPU
	apu *audio.APU

	stateMu          sync.RWMutex
	state            DebuggerState
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64
}

// NewMachine constructs a Machine around cart, with audio wired in from
// the start (the bus dispatches the audio register range to it).
func NewMachine(cart *memory.Cartridge) *Machine {
	bus := memory.NewBus(cart)
	apu := audio.New()
	bus.AttachAPU(apu)

	return &Machine{
		cpu: cpu.New(bus),
		bus: bus,
		ppu: video.NewPPU(bus),
		apu: apu,
	}
}

// LoadBootROM maps rom in at 0x0000 and resets the CPU to the boot ROM's
// entry point, for a --skip-bootrom=false run.
func (m *Machine) LoadBootROM(rom []uint8) {
	m.bus.LoadBootROM(rom)
	m.cpu.Reset()
}

func (m *Machine) CPU() *cpu.CPU    { return m.cpu }
func (m *Machine) Bus() *memory.Bus { return m.bus }

// APU exposes the audio generator as the narrow Provider a backend needs
// for playback and channel debug controls.
func (m *Machine) APU() audio.Provider { return m.apu }

func (m *Machine) FrameBuffer() *video.FrameBuffer { return m.ppu.FrameBuffer() }

func (m *Machine) HandleKeyPress(key memory.JoypadKey)   { m.bus.HandleKeyPress(key) }
func (m *Machine) HandleKeyRelease(key memory.JoypadKey) { m.bus.HandleKeyRelease(key) }

// interruptDispatchCycles is the fixed cost of servicing one interrupt:
// two wasted M-cycles plus a two-byte PUSH, charged to timers/PPU/APU the
// same as any other cycle cost since the interpreter itself never counts
// it (see cpu.CPU.CheckInterrupts's doc comment).
const interruptDispatchCycles = 20

// step executes exactly one instruction through the full per-instruction
// sequence: CPU step, timers/serial tick, PPU tick, APU tick, interrupt
// check. A serviced interrupt's 20-cycle dispatch cost is ticked through
// the same peripherals before returning, so it's never silently dropped
// from their cycle budgets. It returns the total cycle count charged.
func (m *Machine) step() int {
	cycles := m.cpu.Step()
	m.bus.Tick(cycles)
	m.ppu.Tick(cycles)
	m.apu.Tick(cycles)

	if m.cpu.CheckInterrupts() {
		m.bus.Tick(interruptDispatchCycles)
		m.ppu.Tick(interruptDispatchCycles)
		m.apu.Tick(interruptDispatchCycles)
		cycles += interruptDispatchCycles
	}

	m.instructionCount++
	return cycles
}

// RunFrame executes instructions until a full frame (70,224 cycles) has
// elapsed, honoring the current debugger state: paused runs nothing,
// single-step runs exactly one instruction (only if requested) then
// pauses, step-frame runs one full frame (only if requested) then pauses,
// and running executes a full frame unconditionally. It reports whether
// any instructions were executed, so a paused caller can skip frame
// delivery and pacing.
func (m *Machine) RunFrame() bool {
	switch m.currentState() {
	case Paused:
		return false

	case Stepping:
		if !m.consumeStepRequest() {
			return false
		}
		m.step()
		m.setState(Paused)
		return true

	case SteppingFrame:
		if !m.consumeFrameRequest() {
			return false
		}
		m.runOneFrame()
		m.setState(Paused)
		return true

	default:
		m.runOneFrame()
		return true
	}
}

func (m *Machine) runOneFrame() {
	total := 0
	for total < cyclesPerFrame {
		total += m.step()
	}
	m.stateMu.Lock()
	m.frameCount++
	count := m.frameCount
	m.stateMu.Unlock()
	if count%60 == 0 {
		slog.Debug("frame completed", "frame", count, "pc", fmt.Sprintf("0x%04X", m.cpu.PC()))
	}
}

func (m *Machine) currentState() DebuggerState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *Machine) setState(s DebuggerState) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()
	slog.Debug("debugger state changed", "state", s)
}

func (m *Machine) consumeStepRequest() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if !m.stepRequested {
		return false
	}
	m.stepRequested = false
	return true
}

func (m *Machine) consumeFrameRequest() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if !m.frameRequested {
		return false
	}
	m.frameRequested = false
	return true
}

// Pause stops execution after the current RunFrame call returns.
func (m *Machine) Pause() { m.setState(Paused) }

// Resume returns to normal, unthrottled execution.
func (m *Machine) Resume() { m.setState(Running) }

// StepInstruction arms a single-instruction step, executed by the next
// RunFrame call.
func (m *Machine) StepInstruction() {
	m.stateMu.Lock()
	m.stepRequested = true
	m.state = Stepping
	m.stateMu.Unlock()
	slog.Info("step instruction requested")
}

// StepFrame arms a single-frame step, executed by the next RunFrame call.
func (m *Machine) StepFrame() {
	m.stateMu.Lock()
	m.frameRequested = true
	m.state = SteppingFrame
	m.stateMu.Unlock()
	slog.Info("step frame requested")
}

// TogglePause flips between Running and Paused; a machine mid single-step
// is treated as paused.
func (m *Machine) TogglePause() {
	if m.currentState() == Running {
		m.Pause()
	} else {
		m.Resume()
	}
}

func (m *Machine) InstructionCount() uint64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.instructionCount
}

func (m *Machine) FrameCount() uint64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.frameCount
}

// CPUSnapshot implements backend.DebugDataProvider.
func (m *Machine) CPUSnapshot() backend.CPUSnapshot {
	return backend.CPUSnapshot{
		Registers: m.cpu.RegisterFile(),
		PC:        m.cpu.PC(),
		SP:        m.cpu.SP(),
		IME:       m.cpu.IME(),
		Halted:    m.cpu.Halted(),
	}
}

// InterruptFlags implements backend.DebugDataProvider.
func (m *Machine) InterruptFlags() (ie, iff uint8) {
	return m.bus.IE(), m.bus.Read(addr.IF)
}

// Disassembly implements backend.DebugDataProvider. Instructions are
// variable-length, so there is no exact way to decode backward from
// aroundPC; before lines are approximated by disassembling forward from a
// point a few bytes earlier and discarding everything before aroundPC,
// which is right far more often than it's wrong for hand-written debug
// views and never consulted by core emulation.
func (m *Machine) Disassembly(aroundPC uint16, before, after int) []disasm.Line {
	start := aroundPC
	if before > 0 {
		backBy := uint16(before * 3)
		if backBy > start {
			start = 0
		} else {
			start -= backBy
		}
	}

	lines := disasm.DisassembleRange(start, before+after+4, m.bus)

	pivot := 0
	for i, line := range lines {
		if line.Address >= aroundPC {
			pivot = i
			break
		}
	}

	lo := pivot - before
	if lo < 0 {
		lo = 0
	}
	hi := pivot + after + 1
	if hi > len(lines) {
		hi = len(lines)
	}
	return lines[lo:hi]
}

// Read implements backend.DebugDataProvider.
func (m *Machine) Read(address uint16) uint8 { return m.bus.Read(address) }

var _ backend.DebugDataProvider = (*Machine)(nil)
