package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/analysis"
	"github.com/cwbudde/algo-chords/internal/app"
	"github.com/cwbudde/algo-chords/internal/logging"
	"github.com/cwbudde/algo-chords/internal/script"
	"github.com/cwbudde/algo-chords/internal/wavio"
	"github.com/cwbudde/algo-chords/preset"
)

type options struct {
	presetPath string
	chords     string
	chordsFile string
	sampleRate int
	irPath     string
	scriptPath string
	sequence   string
	duration   float64
	output     string
}

// cue selects a chord at a point in time.
type cue struct {
	at    float64
	index int
}

func main() {
	var o options
	flag.StringVar(&o.presetPath, "preset", "", "Preset JSON file path (optional)")
	flag.StringVar(&o.chords, "chords", "", "Builtin chord bank name ("+strings.Join(preset.Names(), ", ")+")")
	flag.StringVar(&o.chordsFile, "chords-file", "", "Chord bank text file (JSON array of offset arrays)")
	flag.IntVar(&o.sampleRate, "sample-rate", 0, "Render sample rate in Hz (default from preset)")
	flag.StringVar(&o.irPath, "ir", "", "Room IR WAV path override (optional)")
	flag.StringVar(&o.scriptPath, "script", "", "Lua sensor automation script (optional)")
	flag.StringVar(&o.sequence, "sequence", "", "Chord cues as time:index pairs, e.g. 0:0,1.5:2,3:1")
	flag.Float64Var(&o.duration, "duration", 4.0, "Duration in seconds")
	flag.StringVar(&o.output, "output", "output.wav", "Output WAV file path")
	debug := flag.Bool("debug", false, "Log chord changes and engine events")
	flag.Parse()

	logger := logging.New(*debug)
	if err := run(o, os.Stdout, logger); err != nil {
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
	switch {
	case o.chordsFile != "":
		b, err := os.ReadFile(o.chordsFile)
		if err != nil {
			return nil, errors.Wrap(err, "read chords")
		}
		bank, err := preset.ParseChords(string(b))
		if err != nil {
			return nil, err
		}
		cfg.Chords = bank
	case o.chords != "":
		bank, err := preset.Builtin(o.chords)
		if err != nil {
			return nil, err
		}
		cfg.Chords = bank
	}
	cfg.Params.ActiveChord = cfg.Chords.ClampIndex(cfg.Params.ActiveChord)
	if o.sampleRate > 0 {
		cfg.SampleRate = o.sampleRate
	}
	if o.irPath != "" {
		cfg.IRWavPath = o.irPath
	}
	return cfg, nil
}

func parseSequence(s string) ([]cue, error) {
	var cues []cue
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		at, idx, ok := strings.Cut(part, ":")
		if !ok {
			return nil, errors.Errorf("invalid cue %q (expected time:index)", part)
		}
		t, err := strconv.ParseFloat(at, 64)
		if err != nil || t < 0 {
			return nil, errors.Errorf("invalid cue time %q", at)
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return nil, errors.Errorf("invalid cue index %q", idx)
		}
		cues = append(cues, cue{at: t, index: i})
	}
	sort.SliceStable(cues, func(a, b int) bool { return cues[a].at < cues[b].at })
	return cues, nil
}

func run(o options, stdout io.Writer, logger *slog.Logger) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	cues, err := parseSequence(o.sequence)
	if err != nil {
		return err
	}

	rig, err := app.New(cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer rig.Close()

	var sc *script.Script
	if o.scriptPath != "" {
		sc, err = script.Load(o.scriptPath, script.Env{
			Bank:        rig.Bank,
			SelectChord: rig.Loop.SelectChord,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		defer sc.Close()
	}

	sr := cfg.SampleRate
	totalFrames := max(int(float64(sr)*o.duration), 1)
	blockSize := max(int(float64(sr)/cfg.TickHz), 1)

	fmt.Fprintf(stdout, "Rendering %.2fs at %d Hz, %d chords, tick every %d frames...\n", o.duration, sr, cfg.Chords.Len(), blockSize)

	samples := make([]float32, 0, totalFrames*2)
	block := make([]float32, blockSize*2)
	next := 0
	for framesRendered := 0; framesRendered < totalFrames; {
		now := float64(framesRendered) / float64(sr)
		for next < len(cues) && cues[next].at <= now {
			rig.Loop.SelectChord(cues[next].index)
			next++
		}
		if sc != nil {
			if err := sc.Tick(now); err != nil {
				return err
			}
		}
		rig.Loop.Tick()

		n := min(blockSize, totalFrames-framesRendered)
		out := block[:n*2]
		rig.Engine.ProcessTo(out)
		samples = append(samples, out...)
		framesRendered += n
	}

	if err := wavio.WriteStereo(o.output, samples, sr); err != nil {
		return err
	}

	r := analysis.Analyze(wavio.StereoToMono(samples), sr)
	fmt.Fprintf(stdout, "Successfully wrote %s (%d frames)\n", o.output, totalFrames)
	fmt.Fprintf(stdout, "rms=%.4f peak=%.4f max_step=%.4f@%d dominant=%.1fHz retriggers=%d\n",
		r.RMS, r.Peak, r.MaxStep, r.MaxStepAt, r.DominantHz, rig.Engine.Retriggers())
	if r.NonFinite > 0 {
		return errors.Errorf("render produced %d non-finite samples", r.NonFinite)
	}
	return nil
}
