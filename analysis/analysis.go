// Package analysis measures rendered synth output: pitch, level and the
// sample-to-sample steps that show up as clicks.
package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/pkg/errors"
)

// Report summarises a mono signal.
type Report struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`
	NonFinite  int `json:"non_finite"`

	RMS        float64 `json:"rms"`
	Peak       float64 `json:"peak"`
	MaxStep    float64 `json:"max_step"`
	MaxStepAt  int     `json:"max_step_at"`
	DominantHz float64 `json:"dominant_hz"`
}

// Analyze measures x. The pitch estimate is skipped for silent input.
func Analyze(x []float64, sampleRate int) Report {
	r := Report{SampleRate: sampleRate, Frames: len(x)}
	for _, v := range x {
		if !isFinite(v) {
			r.NonFinite++
		}
	}
	r.RMS = RMS(x)
	r.Peak = Peak(x)
	r.MaxStep, r.MaxStepAt = MaxStep(x)
	if r.RMS > 1e-6 && r.NonFinite == 0 {
		if hz, err := DominantFrequency(x, sampleRate); err == nil {
			r.DominantHz = hz
		}
	}
	return r
}

// RMS of x, 0 for empty input.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Peak absolute value of x.
func Peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

// MaxStep returns the largest absolute difference between neighbouring
// samples and the index of the later one.
func MaxStep(x []float64) (float64, int) {
	var step float64
	at := 0
	for i := 1; i < len(x); i++ {
		if d := math.Abs(x[i] - x[i-1]); d > step {
			step = d
			at = i
		}
	}
	return step, at
}

// RMSEnvelope returns the RMS of consecutive frames of the given size,
// advanced by hop.
func RMSEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	out := make([]float64, 0, 1+(len(x)-frame)/hop)
	for i := 0; i+frame <= len(x); i += hop {
		out = append(out, RMS(x[i:i+frame]))
	}
	return out
}

const maxFFTSize = 1 << 16

func fftSizeFor(n int) int {
	size := 1
	for size < n && size < maxFFTSize {
		size <<= 1
	}
	return size
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Spectrum returns the Hann-windowed magnitude spectrum of x, zero padded
// to a power of two, and the bin spacing in Hz.
func Spectrum(x []float64, sampleRate int) ([]float64, float64, error) {
	if len(x) < 4 || sampleRate <= 0 {
		return nil, 0, errors.New("signal too short for spectrum")
	}
	size := fftSizeFor(len(x))
	n := min(len(x), size)
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, 0, errors.Wrap(err, "fft plan")
	}
	w := hann(n)
	buf := make([]float64, size)
	for i := 0; i < n; i++ {
		buf[i] = x[i] * w[i]
	}
	spec := make([]complex128, size/2+1)
	plan.Forward(spec, buf)
	mag := make([]float64, len(spec))
	for k, c := range spec {
		mag[k] = cmplx.Abs(c)
	}
	return mag, float64(sampleRate) / float64(size), nil
}

// DominantFrequency estimates the strongest spectral component of x, with
// parabolic interpolation around the peak bin.
func DominantFrequency(x []float64, sampleRate int) (float64, error) {
	mag, binHz, err := Spectrum(x, sampleRate)
	if err != nil {
		return 0, err
	}
	best := 1
	for k := 2; k < len(mag)-1; k++ {
		if mag[k] > mag[best] {
			best = k
		}
	}
	if mag[best] == 0 {
		return 0, errors.New("no spectral peak")
	}
	offset := 0.0
	if best > 0 && best < len(mag)-1 {
		a := math.Log(math.Max(mag[best-1], 1e-300))
		b := math.Log(mag[best])
		c := math.Log(math.Max(mag[best+1], 1e-300))
		if den := a - 2*b + c; den != 0 {
			offset = 0.5 * (a - c) / den
		}
	}
	return (float64(best) + offset) * binHz, nil
}

// Band is a named frequency range.
type Band struct {
	Name string
	LoHz float64
	HiHz float64
}

// DefaultBands splits the audible range into seven bands.
var DefaultBands = []Band{
	{"sub-bass (20-100Hz)", 20, 100},
	{"bass (100-300Hz)", 100, 300},
	{"low-mid (300-1kHz)", 300, 1000},
	{"mid (1-3kHz)", 1000, 3000},
	{"hi-mid (3-6kHz)", 3000, 6000},
	{"high (6-12kHz)", 6000, 12000},
	{"air (12-20kHz)", 12000, 20000},
}

// BandLevels returns the mean power of each band in dB.
func BandLevels(x []float64, sampleRate int, bands []Band) ([]float64, error) {
	mag, binHz, err := Spectrum(x, sampleRate)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(bands))
	for i, b := range bands {
		lo := max(int(b.LoHz/binHz), 1)
		hi := min(int(b.HiHz/binHz), len(mag)-1)
		if lo > hi {
			out[i] = math.Inf(-1)
			continue
		}
		var pow float64
		for k := lo; k <= hi; k++ {
			pow += mag[k] * mag[k]
		}
		out[i] = 10 * math.Log10(math.Max(pow/float64(hi-lo+1), 1e-24))
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
