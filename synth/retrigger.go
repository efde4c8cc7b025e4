package synth

// Retrigger timings, relative to the moment a new chord is requested.
const (
	FadeOutTime = 0.015 // output gain reaches zero
	RepitchTime = 0.020 // oscillator frequencies snap
	FadeInTime  = 0.050 // output gain is back at unity
)

// Phase is where a voice is in the retrigger sequence.
type Phase int

const (
	Idle Phase = iota
	FadingOut
	Repitching
	FadingIn
)

var phaseNames = [...]string{"idle", "fadingOut", "repitching", "fadingIn"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseObserver is told about every phase change of every voice. It runs on
// the audio goroutine and must not block.
type PhaseObserver func(voice int, from, to Phase, t float64)

type retrigState struct {
	active bool
	silent bool
	t0     float64
	phase  Phase
}

func (r *retrigState) start(t0 float64, silent bool) {
	r.active = true
	r.silent = silent
	r.t0 = t0
}

func (r *retrigState) phaseAt(t float64) Phase {
	if !r.active {
		return Idle
	}
	dt := t - r.t0
	switch {
	case dt < 0:
		return r.phase
	case dt < FadeOutTime:
		return FadingOut
	case r.silent:
		return Idle
	case dt < RepitchTime:
		return Repitching
	case dt < FadeInTime:
		return FadingIn
	}
	return Idle
}

// advance moves the state to time t and reports whether the phase changed.
func (r *retrigState) advance(t float64) (from, to Phase, changed bool) {
	from = r.phase
	to = r.phaseAt(t)
	if r.active && to == Idle && t >= r.t0 {
		r.active = false
	}
	r.phase = to
	return from, to, from != to
}

// retriggerCmd runs the fade-out, repitch, fade-in schedule on one voice.
// Frequencies are only written once the output gain is scheduled to be zero.
// A command drained after t0 starts from the drain time, so the fade keeps
// its full length.
type retriggerCmd struct {
	v      *voice
	t0     float64
	freqs  [3]float64
	silent bool
}

func (c retriggerCmd) apply(e *Engine) {
	v := c.v
	t0 := max(c.t0, e.drainTime)
	v.out.CancelAndHold(t0)
	v.out.LinearRampToValueAtTime(0, t0+FadeOutTime)
	v.out.SetValueAtTime(0, t0+RepitchTime)
	for i := range v.ch {
		freq := v.ch[i].osc.freq
		freq.CancelScheduledValues(t0)
		if !c.silent {
			freq.SetValueAtTime(c.freqs[i], t0+RepitchTime)
		}
	}
	if !c.silent {
		v.out.LinearRampToValueAtTime(1, t0+FadeInTime)
	}
	v.retrig.start(t0, c.silent)
}
