package synth

import (
	"math"

	"github.com/cwbudde/algo-chords/dsp"
	"github.com/cwbudde/algo-chords/patch"
)

const (
	filterQ          = 1.0
	filterUpdateRate = 16 // samples between cutoff checks
)

type channel struct {
	osc    *oscillator
	gain   *AudioParam
	detune *AudioParam // cents
}

// voice is three oscillators summed through a lowpass into an output gain.
// All fields belong to the audio domain once the voice is handed to the
// engine.
type voice struct {
	index      int
	sampleRate float64
	ch         [patch.NumChannels]channel
	cutoff     *AudioParam
	out        *AudioParam

	filter      *dsp.Biquad
	lastCutoff  float64
	filterCount int

	retrig retrigState
}

type voiceInit struct {
	oscs   patch.Oscillators
	freqs  [patch.NumChannels]float64
	detune [patch.NumChannels]float64
	cutoff float64
}

func newVoice(index int, sampleRate float64, init voiceInit) *voice {
	v := &voice{
		index:      index,
		sampleRate: sampleRate,
		cutoff:     newAudioParam(sampleRate, init.cutoff),
		out:        newAudioParam(sampleRate, 0),
		lastCutoff: init.cutoff,
	}
	for i := range v.ch {
		cfg := init.oscs[i].Clamped()
		v.ch[i] = channel{
			osc:    newOscillator(cfg.Wave, sampleRate, init.freqs[i]),
			gain:   newAudioParam(sampleRate, cfg.EffectiveGain()),
			detune: newAudioParam(sampleRate, init.detune[i]),
		}
	}
	v.filter = dsp.NewLowpass(float32(init.cutoff), float32(sampleRate), filterQ)
	return v
}

// render produces one mono sample at time t. lfoCents is added to every
// channel's detune.
func (v *voice) render(t float64, lfoCents float64, observer PhaseObserver) float32 {
	if from, to, changed := v.retrig.advance(t); changed && observer != nil {
		observer(v.index, from, to, t)
	}

	var mix float32
	for i := range v.ch {
		c := &v.ch[i]
		g := c.gain.next(t)
		cents := c.detune.next(t) + lfoCents
		hz := c.osc.freq.next(t) * centsToRatio(cents)
		mix += c.osc.sample(hz) * float32(g)
	}

	cutoff := v.cutoff.next(t)
	if v.filterCount == 0 && math.Abs(cutoff-v.lastCutoff) > 0.01 {
		v.filter.SetLowpass(float32(cutoff), float32(v.sampleRate), filterQ)
		v.lastCutoff = cutoff
	}
	v.filterCount++
	if v.filterCount >= filterUpdateRate {
		v.filterCount = 0
	}

	y := v.filter.Process(mix) * float32(v.out.next(t))
	if !isFinite(float64(y)) {
		v.filter.Reset()
		return 0
	}
	return y
}

// Phase returns the voice's retrigger phase as of the last rendered sample.
func (v *voice) Phase() Phase {
	return v.retrig.phase
}
