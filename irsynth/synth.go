// Package irsynth generates stereo room impulse responses for the master
// room stage, for hosts that have no recorded IR.
package irsynth

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Config controls synthetic IR generation.
type Config struct {
	SampleRate int
	DurationS  float64
	Seed       int64

	PreDelayS   float64
	StereoWidth float64
	DirectLevel float64
	EarlyCount  int
	LateLevel   float64

	// Decay times of the tail below and above CrossoverHz.
	LowDecayS   float64
	HighDecayS  float64
	CrossoverHz float64

	NormalizePeak float64
}

// DefaultConfig is a small, warm room that suits sustained pads.
func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		DurationS:     1.6,
		Seed:          1,
		PreDelayS:     0.012,
		StereoWidth:   0.6,
		DirectLevel:   0.5,
		EarlyCount:    12,
		LateLevel:     0.35,
		LowDecayS:     0.55,
		HighDecayS:    0.18,
		CrossoverHz:   2500,
		NormalizePeak: 0.9,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.SampleRate < 8000:
		return errors.Errorf("sample rate too low: %d", c.SampleRate)
	case c.DurationS <= 0:
		return errors.New("duration must be > 0")
	case c.PreDelayS < 0 || c.PreDelayS >= c.DurationS:
		return errors.New("pre-delay must be in [0, duration)")
	case c.StereoWidth < 0 || c.StereoWidth > 1:
		return errors.New("stereo width must be in [0, 1]")
	case c.DirectLevel < 0 || c.LateLevel < 0:
		return errors.New("levels must be >= 0")
	case c.EarlyCount < 0:
		return errors.New("early count must be >= 0")
	case c.LowDecayS <= 0 || c.HighDecayS <= 0:
		return errors.New("decay seconds must be > 0")
	case c.CrossoverHz <= 0 || c.CrossoverHz >= 0.5*float64(c.SampleRate):
		return errors.New("crossover must be between 0 and nyquist")
	case c.NormalizePeak <= 0:
		return errors.New("normalize peak must be > 0")
	}
	return nil
}

// GenerateStereo synthesizes a stereo IR according to cfg. The same seed
// always yields the same response.
func GenerateStereo(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sr := float64(cfg.SampleRate)
	n := int(math.Round(cfg.DurationS * sr))
	if n < 1 {
		n = 1
	}
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	left[0] += cfg.DirectLevel * (1 - 0.05*cfg.StereoWidth)
	right[0] += cfg.DirectLevel * (1 + 0.05*cfg.StereoWidth)

	// Early reflections land between the pre-delay and 4x the pre-delay.
	pre := cfg.PreDelayS
	if pre == 0 {
		pre = 0.005
	}
	for i := 0; i < cfg.EarlyCount; i++ {
		t := pre * (1 + 3*rng.Float64())
		idx := int(t * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.15 + 0.35*rng.Float64()) * math.Exp(-t*20)
		pan := (rng.Float64()*2 - 1) * cfg.StereoWidth
		left[idx] += amp * (1 - 0.5*pan)
		right[idx] += amp * (1 + 0.5*pan)
	}

	if cfg.LateLevel > 0 {
		addTail(left, rng, cfg)
		addTail(right, rng, cfg)
	}

	highpassDC(left, 0.995)
	highpassDC(right, 0.995)

	peak := math.Max(maxAbs(left), maxAbs(right))
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := range left {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

// addTail adds a diffuse noise tail split at the crossover, each band with
// its own exponential decay. Each channel draws its own noise.
func addTail(dst []float64, rng *rand.Rand, cfg Config) {
	sr := float64(cfg.SampleRate)
	start := int(cfg.PreDelayS * sr)
	lpCoef := math.Exp(-2 * math.Pi * cfg.CrossoverHz / sr)
	lowDecay := math.Exp(-1 / (cfg.LowDecayS * sr))
	highDecay := math.Exp(-1 / (cfg.HighDecayS * sr))

	// fade the tail in over 20 ms so it doesn't start with a step
	fadeIn := int(0.02 * sr)
	lowEnv, highEnv := 1.0, 1.0
	lp := 0.0
	for i := start; i < len(dst); i++ {
		noise := rng.NormFloat64()
		lp = (1-lpCoef)*noise + lpCoef*lp
		hp := noise - lp

		v := lp*lowEnv + 0.5*hp*highEnv
		if k := i - start; k < fadeIn {
			v *= float64(k) / float64(fadeIn)
		}
		dst[i] += cfg.LateLevel * v
		lowEnv *= lowDecay
		highEnv *= highDecay
	}
}

func highpassDC(x []float64, r float64) {
	var x1, y1 float64
	for i, v := range x {
		y := v - x1 + r*y1
		x1, y1 = v, y
		x[i] = y
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
