// Package headless implements a Backend with no display or input device,
// for automated testing, CI smoke runs, and batch PNG snapshot capture.
package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/input/event"
	"github.com/haldis/gbcore/internal/video"
)

// SnapshotConfig controls periodic PNG export of rendered frames.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int
	Directory string
	ROMName   string
	Scale     int // upscale factor applied to exported PNGs, 1 = no scaling
}

// Backend runs the emulator without rendering to a screen, exiting after
// maxFrames (or immediately, in test-pattern mode).
type Backend struct {
	config     backend.Config
	frameCount int
	maxFrames  int
	snapshot   SnapshotConfig
}

func New(maxFrames int, snapshot SnapshotConfig) *Backend {
	return &Backend{maxFrames: maxFrames, snapshot: snapshot}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config

	if config.TestPattern {
		slog.Info("headless test pattern mode, exiting after verification")
		return nil
	}

	slog.Info("running headless",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshot.Interval,
		"snapshot_dir", h.snapshot.Directory)

	return nil
}

// Update runs one frame of bookkeeping: exports a snapshot if due, and
// requests a quit once maxFrames is reached.
func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	if h.config.TestPattern {
		return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, nil
	}

	h.frameCount++

	if h.snapshot.Enabled && h.frameCount%h.snapshot.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%60 == 0 {
		slog.Debug("frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	var events []backend.InputEvent
	if h.frameCount >= h.maxFrames {
		if h.snapshot.Enabled && h.frameCount%h.snapshot.Interval != 0 {
			h.saveSnapshot(frame)
		}
		slog.Info("headless run completed", "frames", h.maxFrames)
		events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	return events, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// CreateSnapshotConfig derives a SnapshotConfig from CLI parameters,
// creating the output directory (or a temp one) as needed.
func CreateSnapshotConfig(interval int, directory, romPath string, scale int) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
		Scale:    scale,
	}
	if config.Scale < 1 {
		config.Scale = 1
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "gbcore-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, fmt.Errorf("create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	config.ROMName = filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(config.ROMName, filepath.Ext(config.ROMName))

	return config, nil
}

func (h *Backend) saveSnapshot(frame *video.FrameBuffer) {
	baseName := fmt.Sprintf("%s_frame_%d", h.snapshot.ROMName, h.frameCount)
	if err := SaveFramePNG(frame, baseName, h.snapshot.Directory, h.snapshot.Scale); err != nil {
		slog.Error("failed to save PNG snapshot", "frame", h.frameCount, "error", err)
	}
}
