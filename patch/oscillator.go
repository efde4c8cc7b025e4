package patch

import (
	"strings"

	"github.com/pkg/errors"
)

// Waveform defines an oscillator shape.
type Waveform int

const (
	Sawtooth Waveform = iota
	Square
	Sine
	Triangle
)

var waveformNames = [...]string{"sawtooth", "square", "sine", "triangle"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[w]
}

// ParseWaveform maps a waveform name to its value. "saw" is accepted as an
// alias for sawtooth.
func ParseWaveform(name string) (Waveform, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "saw" {
		return Sawtooth, nil
	}
	for i, s := range waveformNames {
		if s == n {
			return Waveform(i), nil
		}
	}
	return 0, errors.Errorf("unknown waveform %q", name)
}

// Oscillator channels of every voice.
const (
	ChannelA = iota
	ChannelB
	ChannelC
	NumChannels
)

// Octave range of a channel.
const (
	MinOctave = -2
	MaxOctave = 2
)

// OscillatorConfig is shared by the same channel of every voice.
type OscillatorConfig struct {
	Wave    Waveform
	Octave  int
	Gain    float64
	Enabled bool
}

// Clamped returns c with octave and gain forced into range.
func (c OscillatorConfig) Clamped() OscillatorConfig {
	if c.Octave < MinOctave {
		c.Octave = MinOctave
	}
	if c.Octave > MaxOctave {
		c.Octave = MaxOctave
	}
	c.Gain = Clamp(c.Gain, 0, 1)
	if c.Wave < Sawtooth || c.Wave > Triangle {
		c.Wave = Sine
	}
	return c
}

// EffectiveGain is the channel gain the mixer aims for.
func (c OscillatorConfig) EffectiveGain() float64 {
	if !c.Enabled {
		return 0
	}
	return c.Gain
}

// Oscillators is the full A/B/C channel configuration.
type Oscillators [NumChannels]OscillatorConfig

// DefaultOscillators returns the startup channel configuration.
func DefaultOscillators() Oscillators {
	return Oscillators{
		{Wave: Triangle, Octave: 0, Gain: 0.5, Enabled: true},
		{Wave: Sine, Octave: 0, Gain: 0.5, Enabled: true},
		{Wave: Square, Octave: -1, Gain: 0.5, Enabled: false},
	}
}

// SameWaves reports whether both configurations use identical waveforms
// on every channel.
func (o Oscillators) SameWaves(other Oscillators) bool {
	for i := range o {
		if o[i].Wave != other[i].Wave {
			return false
		}
	}
	return true
}

// SameOctaves reports whether both configurations transpose identically.
func (o Oscillators) SameOctaves(other Oscillators) bool {
	for i := range o {
		if o[i].Octave != other[i].Octave {
			return false
		}
	}
	return true
}
