// Package app wires a preset into a running engine, voice graph and
// control loop. The commands share it.
package app

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/control"
	"github.com/cwbudde/algo-chords/irsynth"
	"github.com/cwbudde/algo-chords/preset"
	"github.com/cwbudde/algo-chords/routing"
	"github.com/cwbudde/algo-chords/sensor"
	"github.com/cwbudde/algo-chords/synth"
)

// Options that don't come from the preset file.
type Options struct {
	Camera *sensor.Camera
	Visual control.Visual
	Logger *slog.Logger

	// NoAudio builds the loop without an engine, as when the device
	// failed to open.
	NoAudio bool
}

// Rig is the assembled synth.
type Rig struct {
	Config *preset.Config
	Bank   *sensor.Bank
	Matrix *routing.Matrix
	Engine *synth.Engine
	Graph  *synth.VoiceGraph
	Loop   *control.Loop
}

// New builds a rig from cfg. A room IR that fails to load is logged and
// skipped.
func New(cfg *preset.Config, opts Options) (*Rig, error) {
	if cfg == nil {
		cfg = preset.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Rig{
		Config: cfg,
		Bank:   sensor.NewBank(),
		Matrix: routing.NewMatrix(cfg.Routes),
	}

	if !opts.NoAudio {
		r.Engine = synth.NewEngine(cfg.SampleRate)
		if room := loadRoom(cfg, logger); room != nil {
			r.Engine.SetRoom(room, synth.Mix{Dry: float32(1 - cfg.RoomWet), Wet: float32(cfg.RoomWet)})
		}
		r.Graph = synth.NewVoiceGraph(r.Engine, cfg.Oscillators, cfg.Params, cfg.Chords.At(cfg.Params.ActiveChord))
	}

	loop, err := control.New(control.Config{
		Bank:        r.Bank,
		Matrix:      r.Matrix,
		Camera:      opts.Camera,
		Graph:       r.Graph,
		Visual:      opts.Visual,
		Logger:      logger,
		Chords:      cfg.Chords,
		Params:      cfg.Params,
		Oscillators: cfg.Oscillators,
	})
	if err != nil {
		if r.Engine != nil {
			_ = r.Engine.Close()
		}
		return nil, errors.Wrap(err, "control loop")
	}
	r.Loop = loop
	return r, nil
}

// loadRoom returns the configured room or nil. A recorded IR takes
// precedence over a synthetic one.
func loadRoom(cfg *preset.Config, logger *slog.Logger) *synth.Room {
	switch {
	case cfg.IRWavPath != "":
		room, err := synth.LoadRoom(cfg.IRWavPath, cfg.SampleRate)
		if err != nil {
			logger.Warn("room ir not loaded", "path", cfg.IRWavPath, "err", err)
			return nil
		}
		logger.Debug("room ir loaded", "path", cfg.IRWavPath, "samples", room.Len())
		return room
	case cfg.SyntheticRoom:
		ir := irsynth.DefaultConfig()
		ir.SampleRate = cfg.SampleRate
		left, right, err := irsynth.GenerateStereo(ir)
		if err == nil {
			room := synth.NewRoom(cfg.SampleRate)
			if err = room.SetIR(left, right); err == nil {
				logger.Debug("synthetic room generated", "samples", room.Len())
				return room
			}
		}
		logger.Warn("synthetic room not generated", "err", err)
	}
	return nil
}

// Close shuts the engine down.
func (r *Rig) Close() error {
	if r.Engine == nil {
		return nil
	}
	return r.Engine.Close()
}
