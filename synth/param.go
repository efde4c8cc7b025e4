package synth

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

type eventKind int

const (
	evSetValue eventKind = iota
	evLinearRamp
	evSetTarget
)

type paramEvent struct {
	kind  eventKind
	time  float64
	value float64
	tau   float64
}

// AudioParam is an automatable value evaluated once per sample on the
// engine clock. It belongs to the audio domain: the control side only
// reaches it through engine commands.
type AudioParam struct {
	sampleRate float64
	value      float64
	events     []paramEvent

	// start of the segment a linear ramp interpolates from
	anchorTime  float64
	anchorValue float64

	hasTarget   bool
	targetValue float64
	targetCoef  float64
}

func newAudioParam(sampleRate float64, value float64) *AudioParam {
	return &AudioParam{
		sampleRate:  sampleRate,
		value:       value,
		anchorValue: value,
	}
}

// Value returns the value computed for the most recent sample.
func (p *AudioParam) Value() float64 {
	return p.value
}

// Pending returns the number of scheduled events that haven't fired.
func (p *AudioParam) Pending() int {
	return len(p.events)
}

func (p *AudioParam) insert(e paramEvent) {
	i := len(p.events)
	for i > 0 && p.events[i-1].time > e.time {
		i--
	}
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// SetValueAtTime jumps to v at time t.
func (p *AudioParam) SetValueAtTime(v, t float64) {
	p.insert(paramEvent{kind: evSetValue, time: t, value: v})
}

// LinearRampToValueAtTime ramps from the previous value to reach v at t.
func (p *AudioParam) LinearRampToValueAtTime(v, t float64) {
	p.insert(paramEvent{kind: evLinearRamp, time: t, value: v})
}

// SetTargetAtTime approaches target exponentially from t on.
func (p *AudioParam) SetTargetAtTime(target, t, tau float64) {
	if tau <= 0 {
		p.SetValueAtTime(target, t)
		return
	}
	p.insert(paramEvent{kind: evSetTarget, time: t, value: target, tau: tau})
}

// CancelScheduledValues drops every event at or after t.
func (p *AudioParam) CancelScheduledValues(t float64) {
	keep := p.events[:0]
	for _, e := range p.events {
		if e.time < t {
			keep = append(keep, e)
		}
	}
	p.events = keep
}

// CancelAndHold drops every event at or after t and freezes the param at
// its current value, so whatever was running stops without a jump.
func (p *AudioParam) CancelAndHold(t float64) {
	p.CancelScheduledValues(t)
	p.hasTarget = false
	p.SetValueAtTime(p.value, t)
}

// next advances the param to sample time t and returns its value there.
// Events that fire late anchor at t rather than at their nominal time.
func (p *AudioParam) next(t float64) float64 {
	for len(p.events) > 0 {
		e := p.events[0]
		if e.kind == evLinearRamp {
			if t >= e.time {
				p.value = e.value
				p.hasTarget = false
				p.anchorTime, p.anchorValue = t, p.value
				p.events = p.events[1:]
				continue
			}
			span := e.time - p.anchorTime
			if span <= 0 {
				p.value = e.value
			} else {
				p.value = p.anchorValue + (e.value-p.anchorValue)*(t-p.anchorTime)/span
			}
			return p.value
		}
		if t < e.time {
			break
		}
		switch e.kind {
		case evSetValue:
			p.value = e.value
			p.hasTarget = false
		case evSetTarget:
			p.hasTarget = true
			p.targetValue = e.value
			p.targetCoef = targetCoef(e.tau, p.sampleRate)
		}
		p.anchorTime, p.anchorValue = t, p.value
		p.events = p.events[1:]
	}

	if p.hasTarget {
		diff := dspcore.FlushDenormals((p.value - p.targetValue) * p.targetCoef)
		if math.Abs(diff) < 1e-9 {
			diff = 0
		}
		p.value = p.targetValue + diff
	}
	p.anchorTime, p.anchorValue = t, p.value
	return p.value
}
