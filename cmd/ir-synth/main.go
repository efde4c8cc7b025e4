package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/analysis"
	"github.com/cwbudde/algo-chords/internal/wavio"
	"github.com/cwbudde/algo-chords/irsynth"
)

func main() {
	cfg := irsynth.DefaultConfig()

	output := flag.String("output", "room.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DurationS, "duration", cfg.DurationS, "IR length in seconds")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.PreDelayS, "predelay", cfg.PreDelayS, "Delay before the diffuse tail (s)")
	flag.Float64Var(&cfg.StereoWidth, "stereo-width", cfg.StereoWidth, "Stereo width of early reflections [0,1]")
	flag.Float64Var(&cfg.DirectLevel, "direct", cfg.DirectLevel, "Direct impulse level")
	flag.IntVar(&cfg.EarlyCount, "early", cfg.EarlyCount, "Number of early reflections")
	flag.Float64Var(&cfg.LateLevel, "late", cfg.LateLevel, "Diffuse tail level")
	flag.Float64Var(&cfg.LowDecayS, "low-decay", cfg.LowDecayS, "Tail decay time below the crossover (s)")
	flag.Float64Var(&cfg.HighDecayS, "high-decay", cfg.HighDecayS, "Tail decay time above the crossover (s)")
	flag.Float64Var(&cfg.CrossoverHz, "crossover", cfg.CrossoverHz, "Decay crossover frequency (Hz)")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target")
	flag.Parse()

	if err := run(cfg, *output, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg irsynth.Config, output string, w io.Writer) error {
	left, right, err := irsynth.GenerateStereo(cfg)
	if err != nil {
		return err
	}
	stereo := make([]float32, len(left)*2)
	for i := range left {
		stereo[i*2] = left[i]
		stereo[i*2+1] = right[i]
	}
	if err := wavio.WriteStereo(output, stereo, cfg.SampleRate); err != nil {
		return errors.Wrap(err, "write wav")
	}

	mono := wavio.StereoToMono(stereo)
	fmt.Fprintf(w, "Wrote %s\n", output)
	fmt.Fprintf(w, "SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS, len(left))
	fmt.Fprintf(w, "Peak: %.6f, RMS: %.6f\n", analysis.Peak(mono), analysis.RMS(mono))
	return nil
}
