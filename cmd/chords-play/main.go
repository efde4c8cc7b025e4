package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"


	"github.com/cwbudde/algo-chords/control"
	"github.com/cwbudde/algo-chords/internal/app"
	"github.com/cwbudde/algo-chords/internal/device"
	"github.com/cwbudde/algo-chords/internal/logging"
	"github.com/cwbudde/algo-chords/internal/termhost"
	"github.com/cwbudde/algo-chords/preset"
	"github.com/cwbudde/algo-chords/sensor"
)

type options struct {
	presetPath string
	chords     string
	tickHz     float64
	buffer     time.Duration
	cameraDir  string
	cameraFPS  float64
	debug      bool
}

func main() {
	var o options
	flag.StringVar(&o.presetPath, "preset", "", "Preset JSON file path (optional)")
	flag.StringVar(&o.chords, "chords", "", "Builtin chord bank name ("+strings.Join(preset.Names(), ", ")+")")
	flag.Float64Var(&o.tickHz, "tick-hz", 0, "Control tick rate (default from preset)")
	flag.DurationVar(&o.buffer, "buffer", 20*time.Millisecond, "Audio device buffer size")
	flag.StringVar(&o.cameraDir, "camera-dir", "", "Directory of images played back as camera frames")
	flag.Float64Var(&o.cameraFPS, "camera-fps", 10, "Camera frame rate for -camera-dir")
	flag.BoolVar(&o.debug, "debug", false, "Log chord changes and device events")
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(o options) (*preset.Config, error) {
	cfg := preset.DefaultConfig()
	if o.presetPath != "" {
		c, err := preset.LoadJSON(o.presetPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if o.chords != "" {
		bank, err := preset.Builtin(o.chords)
		if err != nil {
			return nil, err
		}
		cfg.Chords = bank
		cfg.Params.ActiveChord = bank.ClampIndex(cfg.Params.ActiveChord)
	}
	if o.tickHz > 0 {
		cfg.TickHz = o.tickHz
	}
	return cfg, nil
}

func run(o options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	interactive := termhost.IsTerminal()
	var logOut io.Writer = os.Stderr
	if interactive {
		logOut = logging.CRLF(os.Stderr)
	}
	logger := logging.NewWriter(logOut, o.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	camera := sensor.NewCamera(nil)
	if o.cameraDir != "" {
		frames, err := newDirFrames(o.cameraDir, o.cameraFPS)
		if err != nil {
			logger.Warn("camera unavailable", "err", err)
			camera.SetUnavailable(err)
		} else {
			camera.SetSource(frames)
			go frames.run(ctx)
		}
	}

	player, err := device.Open(cfg.SampleRate, o.buffer)
	if err != nil {
		logger.Warn("audio device unavailable, running without sound", "err", err)
	}

	status := newStatusLine(os.Stdout, interactive, 100*time.Millisecond)
	rig, err := app.New(cfg, app.Options{
		Camera:  camera,
		Visual:  status,
		Logger:  logger,
		NoAudio: player == nil,
	})
	if err != nil {
		if player != nil {
			_ = player.Close()
		}
		return err
	}
	defer rig.Close()

	if player != nil {
		player.Attach(rig.Engine)
		player.Start()
		defer func() {
			if err := player.Close(); err != nil {
				logger.Warn("close audio device", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if interactive {
		host := termhost.New(func(r rune) {
			switch r {
			case termhost.KeyInterrupt, termhost.KeyEscape, 'q':
				cancel()
				return
			}
			rig.Loop.KeyPress(r)
		})
		if err := host.Start(); err != nil {
			logger.Warn("keyboard input unavailable", "err", err)
		} else {
			defer host.Stop()
		}
	}

	driver := control.NewDriver(rig.Loop, cfg.TickHz)
	driver.Start(ctx)
	defer driver.Stop()

	logger.Info("playing", "chords", rig.Config.Chords.Len(), "sample_rate", cfg.SampleRate,
		"tick", driver.Interval(), "audio", player != nil, "camera", camera.Available())
	if interactive {
		fmt.Fprint(os.Stdout, "keys 1-9 select a chord, space pauses, q quits\r\n")
	}

	<-ctx.Done()
	status.finish()
	return nil
}

// statusLine redraws a single terminal line from loop snapshots, at most
// once per interval.
type statusLine struct {
	w           io.Writer
	interactive bool
	interval    time.Duration

	mu   sync.Mutex
	last time.Time
	seen bool
}

func newStatusLine(w io.Writer, interactive bool, interval time.Duration) *statusLine {
	return &statusLine{w: w, interactive: interactive, interval: interval}
}

func (s *statusLine) Update(snap control.Snapshot) {
	if !s.interactive {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.seen && now.Sub(s.last) < s.interval {
		return
	}
	s.last, s.seen = now, true
	fmt.Fprintf(s.w, "\r\x1b[K%s", formatStatus(snap))
}

func (s *statusLine) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen {
		fmt.Fprint(s.w, "\r\n")
	}
}

func formatStatus(snap control.Snapshot) string {
	p := snap.Effective
	state := "playing"
	switch {
	case !snap.Status.AudioAvailable:
		state = "no audio"
	case snap.Status.Paused:
		state = "paused"
	}
	return fmt.Sprintf("chord %d/%d %v  vol %.2f  cutoff %4.0f Hz  detune %4.1f  lfo %5.1f@%.1fHz  activity %.2f  [%s]",
		snap.ActiveChord+1, snap.NumChords, []int(snap.Chord),
		p.Volume, p.Cutoff, p.Detune, p.ModDepth, p.ModRate, snap.Activity, state)
}

var _ control.Visual = (*statusLine)(nil)
