package synth

import (
	"math"

	"github.com/cwbudde/algo-chords/patch"
)

// oscillator is a phase-accumulating source. Sawtooth and square use
// PolyBLEP correction at their discontinuities.
type oscillator struct {
	wave       patch.Waveform
	sampleRate float64
	phase      float64
	freq       *AudioParam
}

func newOscillator(wave patch.Waveform, sampleRate float64, freq float64) *oscillator {
	return &oscillator{
		wave:       wave,
		sampleRate: sampleRate,
		freq:       newAudioParam(sampleRate, freq),
	}
}

// sample returns the current output and advances the phase by hz.
func (o *oscillator) sample(hz float64) float32 {
	dt := hz / o.sampleRate
	if !isFinite(dt) || dt < 0 {
		dt = 0
	}
	if dt > 0.5 {
		dt = 0.5
	}

	p := o.phase
	var y float64
	switch o.wave {
	case patch.Sine:
		y = math.Sin(2 * math.Pi * p)
	case patch.Sawtooth:
		y = 2*p - 1 - polyBLEP(p, dt)
	case patch.Square:
		if p < 0.5 {
			y = 1
		} else {
			y = -1
		}
		q := p + 0.5
		if q >= 1 {
			q--
		}
		y += polyBLEP(p, dt) - polyBLEP(q, dt)
	case patch.Triangle:
		y = 4*math.Abs(p-0.5) - 1
	}

	o.phase += dt
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return float32(y)
}

func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// lfo is the shared sine modulator feeding every oscillator's detune, in
// cents.
type lfo struct {
	sampleRate float64
	phase      float64
	rate       *AudioParam
	depth      *AudioParam
}

func newLFO(sampleRate float64, rate, depth float64) *lfo {
	return &lfo{
		sampleRate: sampleRate,
		rate:       newAudioParam(sampleRate, rate),
		depth:      newAudioParam(sampleRate, depth),
	}
}

func (l *lfo) next(t float64) float64 {
	rate := l.rate.next(t)
	depth := l.depth.next(t)
	y := math.Sin(2*math.Pi*l.phase) * depth
	l.phase += rate / l.sampleRate
	if l.phase >= 1 || l.phase < 0 {
		l.phase -= math.Floor(l.phase)
	}
	return y
}
