package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// Frequency converts a (possibly fractional) MIDI note number to Hz.
func Frequency(note float64) float64 {
	// A4 (note 69) = 440 Hz
	return 440 * math.Pow(2, (note-69)/12)
}

// centsToRatio is evaluated per sample, so it uses the fast approximation.
func centsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return float64(pow2Approx(float32(cents / 1200.0)))
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

// targetCoef is the per-sample decay of an exponential approach with time
// constant tau seconds.
func targetCoef(tau float64, sampleRate float64) float64 {
	if tau <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1 / (tau * sampleRate))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
