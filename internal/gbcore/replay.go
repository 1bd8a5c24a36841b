package gbcore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
)

// Recorder appends every dispatched input event to --record-input, one
// line per event, tagged with the frame it occurred on so a replay can
// reproduce the same timing relative to frame boundaries.
type Recorder struct {
	w io.Writer
	f *os.File
}

func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{w: bufio.NewWriter(f), f: f}, nil
}

func (r *Recorder) Record(frame uint64, evt backend.InputEvent) {
	fmt.Fprintf(r.w, "%d %d %d\n", frame, evt.Action, evt.Type)
}

func (r *Recorder) Close() error {
	if bw, ok := r.w.(*bufio.Writer); ok {
		bw.Flush()
	}
	return r.f.Close()
}

// recordedEvent is one line of a --replay-input file.
type recordedEvent struct {
	frame uint64
	evt   backend.InputEvent
}

// Player replays a --record-input capture, handing back the events due on
// a given frame as RunFrame advances past it.
type Player struct {
	events []recordedEvent
	cursor int
}

func NewPlayer(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Player{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		frame, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		act, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		typ, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		p.events = append(p.events, recordedEvent{
			frame: frame,
			evt:   backend.InputEvent{Action: action.Action(act), Type: event.Type(typ)},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// EventsForFrame returns every recorded event due on frame or earlier that
// hasn't been returned yet, in order.
func (p *Player) EventsForFrame(frame uint64) []backend.InputEvent {
	var due []backend.InputEvent
	for p.cursor < len(p.events) && p.events[p.cursor].frame <= frame {
		due = append(due, p.events[p.cursor].evt)
		p.cursor++
	}
	return due
}

// Done reports whether every recorded event has been replayed.
func (p *Player) Done() bool { return p.cursor >= len(p.events) }
