package synth

import (
	"github.com/cwbudde/algo-chords/patch"
)

// NumVoices is the fixed polyphony of the graph.
const NumVoices = 4

// Smoothing time constants, in seconds.
const (
	ChannelGainTau = 0.05
	VolumeTau      = 0.05
	CutoffTau      = 0.1
	DetuneTau      = 0.1
	ModDepthTau    = 0.1
	ModRateTau     = 0.1
)

// VoiceGraph is the control-side handle on the engine's voices. It keeps
// what it last asked for (oscillator layout, chord, smoothed targets) and
// turns every change into engine commands. It is not safe for concurrent
// use.
type VoiceGraph struct {
	engine *Engine
	oscs   patch.Oscillators
	chord  patch.Chord
	voices []*voice

	cutoff float64
	detune float64
}

// NewVoiceGraph builds the voices for oscs, sets the smoothed parameters
// to params without ramping and fades chord in.
func NewVoiceGraph(engine *Engine, oscs patch.Oscillators, params patch.Params, chord patch.Chord) *VoiceGraph {
	params = params.Clamped()
	g := &VoiceGraph{
		engine: engine,
		cutoff: params.Cutoff,
		detune: params.Detune,
	}
	for i := range oscs {
		g.oscs[i] = oscs[i].Clamped()
	}
	now := engine.CurrentTime()
	engine.enqueue(
		paramCmd{p: engine.master, op: opSetValue, value: params.Volume, time: now},
		paramCmd{p: engine.lfo.depth, op: opSetValue, value: params.ModDepth, time: now},
		paramCmd{p: engine.lfo.rate, op: opSetValue, value: params.ModRate, time: now},
	)
	g.build(chord)
	return g
}

// Oscillators returns the layout the graph was last built or updated with.
func (g *VoiceGraph) Oscillators() patch.Oscillators {
	return g.oscs
}

// Chord returns the chord most recently played.
func (g *VoiceGraph) Chord() patch.Chord {
	return g.chord
}

// Engine returns the engine the graph drives.
func (g *VoiceGraph) Engine() *Engine {
	return g.engine
}

func detuneSpread(cents float64) [patch.NumChannels]float64 {
	if cents <= 0 {
		return [patch.NumChannels]float64{}
	}
	return [patch.NumChannels]float64{-cents, 0, cents}
}

func (g *VoiceGraph) frequencies(chord patch.Chord, voice int) [patch.NumChannels]float64 {
	var freqs [patch.NumChannels]float64
	note := chord.Note(voice)
	for c := range freqs {
		freqs[c] = Frequency(float64(note + 12*g.oscs[c].Octave))
	}
	return freqs
}

// build replaces the engine's voices with a fresh set sized to the current
// layout. New voices start silent and are faded in through a retrigger.
func (g *VoiceGraph) build(chord patch.Chord) {
	sr := float64(g.engine.sampleRate)
	voices := make([]*voice, NumVoices)
	for i := range voices {
		voices[i] = newVoice(i, sr, voiceInit{
			oscs:   g.oscs,
			freqs:  g.frequencies(chord, i),
			detune: detuneSpread(g.detune),
			cutoff: g.cutoff,
		})
	}
	g.voices = voices
	g.engine.enqueue(swapCmd{voices: voices})
	g.PlayChord(chord)
}

// SetOscillators applies a new layout. A waveform change rebuilds the
// voices; an octave change retriggers the current chord; gain and enable
// changes are smoothed. It reports whether the voices were rebuilt.
func (g *VoiceGraph) SetOscillators(oscs patch.Oscillators) bool {
	for i := range oscs {
		oscs[i] = oscs[i].Clamped()
	}
	prev := g.oscs
	g.oscs = oscs
	if !prev.SameWaves(oscs) {
		g.build(g.chord)
		return true
	}

	now := g.engine.CurrentTime()
	cmds := make([]command, 0, len(g.voices)*patch.NumChannels)
	for _, v := range g.voices {
		for c := range v.ch {
			cmds = append(cmds, paramCmd{p: v.ch[c].gain, op: opSetTarget, value: oscs[c].EffectiveGain(), time: now, tau: ChannelGainTau})
		}
	}
	g.engine.enqueue(cmds...)

	if !prev.SameOctaves(oscs) {
		g.PlayChord(g.chord)
	}
	return false
}

// PlayChord moves every voice to chord via the retrigger sequence. Voice i
// plays chord.Note(i); an empty chord fades the voices out and leaves them
// silent.
func (g *VoiceGraph) PlayChord(chord patch.Chord) {
	g.chord = append(patch.Chord(nil), chord...)
	t0 := g.engine.CurrentTime()
	cmds := make([]command, 0, len(g.voices))
	for i, v := range g.voices {
		cmds = append(cmds, retriggerCmd{
			v:      v,
			t0:     t0,
			freqs:  g.frequencies(chord, i),
			silent: chord.Silent(),
		})
	}
	g.engine.enqueue(cmds...)
	g.engine.retriggers.Add(1)
}

// SetCutoff glides every voice's lowpass towards hz.
func (g *VoiceGraph) SetCutoff(hz float64) {
	hz = patch.Clamp(hz, patch.MinCutoff, patch.MaxCutoff)
	g.cutoff = hz
	now := g.engine.CurrentTime()
	cmds := make([]command, 0, len(g.voices))
	for _, v := range g.voices {
		cmds = append(cmds, paramCmd{p: v.cutoff, op: opSetTarget, value: hz, time: now, tau: CutoffTau})
	}
	g.engine.enqueue(cmds...)
}

// SetDetune spreads the oscillators by -cents, 0 and +cents.
func (g *VoiceGraph) SetDetune(cents float64) {
	cents = patch.Clamp(cents, patch.MinDetune, patch.MaxDetune)
	g.detune = cents
	spread := detuneSpread(cents)
	now := g.engine.CurrentTime()
	cmds := make([]command, 0, len(g.voices)*patch.NumChannels)
	for _, v := range g.voices {
		for c := range v.ch {
			cmds = append(cmds, paramCmd{p: v.ch[c].detune, op: opSetTarget, value: spread[c], time: now, tau: DetuneTau})
		}
	}
	g.engine.enqueue(cmds...)
}

// SetVolume glides the master gain.
func (g *VoiceGraph) SetVolume(v float64) {
	v = patch.Clamp(v, patch.MinVolume, patch.MaxVolume)
	g.engine.enqueue(paramCmd{p: g.engine.master, op: opSetTarget, value: v, time: g.engine.CurrentTime(), tau: VolumeTau})
}

// SetModDepth glides the LFO depth, in cents.
func (g *VoiceGraph) SetModDepth(cents float64) {
	cents = patch.Clamp(cents, patch.MinModDepth, patch.MaxModDepth)
	g.engine.enqueue(paramCmd{p: g.engine.lfo.depth, op: opSetTarget, value: cents, time: g.engine.CurrentTime(), tau: ModDepthTau})
}

// SetModRate glides the LFO rate, in Hz.
func (g *VoiceGraph) SetModRate(hz float64) {
	hz = patch.Clamp(hz, patch.MinModRate, patch.MaxModRate)
	g.engine.enqueue(paramCmd{p: g.engine.lfo.rate, op: opSetTarget, value: hz, time: g.engine.CurrentTime(), tau: ModRateTau})
}

// Apply pushes every smoothed parameter of p.
func (g *VoiceGraph) Apply(p patch.Params) {
	g.SetVolume(p.Volume)
	g.SetCutoff(p.Cutoff)
	g.SetDetune(p.Detune)
	g.SetModDepth(p.ModDepth)
	g.SetModRate(p.ModRate)
}
