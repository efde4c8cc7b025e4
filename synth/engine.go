package synth

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// State of the audio engine.
type State int32

const (
	Running State = iota
	Suspended
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// ErrClosed is returned when a closed engine is asked to change state.
var ErrClosed = errors.New("audio engine closed")

// Mix levels for the room convolver.
type Mix struct {
	Dry float32
	Wet float32
}

type command interface {
	apply(e *Engine)
}

// Engine renders the voice graph. The control side never touches audio
// state directly: it enqueues commands, which Process applies at the start
// of the next block. The sample clock is advanced only by Process.
type Engine struct {
	sampleRate int

	frames     atomic.Int64
	state      atomic.Int32
	retriggers atomic.Int64

	mu      sync.Mutex
	pending []command
	// index in pending of the latest setTarget per param, while it is still
	// the last command queued for that param
	targets map[*AudioParam]int

	// audio domain
	inbox     []command
	drainTime float64 // time of the first sample rendered after the last drain
	voices   []*voice
	lfo      *lfo
	master   *AudioParam
	room     *Room
	mix      Mix
	observer PhaseObserver
	mono     []float32
}

// NewEngine creates a running engine with no voices.
func NewEngine(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	sr := float64(sampleRate)
	return &Engine{
		sampleRate: sampleRate,
		lfo:        newLFO(sr, 0, 0),
		master:     newAudioParam(sr, 0),
		mix:        Mix{Dry: 1},
	}
}

// SampleRate returns the engine sample rate in Hz.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// CurrentTime returns the engine clock in seconds.
func (e *Engine) CurrentTime() float64 {
	return float64(e.frames.Load()) / float64(e.sampleRate)
}

// Frames returns the number of frames rendered while running.
func (e *Engine) Frames() int64 {
	return e.frames.Load()
}

// State returns the current engine state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Suspend stops the clock; Process outputs silence until Resume.
func (e *Engine) Suspend() error {
	if e.state.CompareAndSwap(int32(Running), int32(Suspended)) || e.State() == Suspended {
		return nil
	}
	return ErrClosed
}

// Resume restarts a suspended engine.
func (e *Engine) Resume() error {
	if e.state.CompareAndSwap(int32(Suspended), int32(Running)) || e.State() == Running {
		return nil
	}
	return ErrClosed
}

// Close stops the engine for good.
func (e *Engine) Close() error {
	e.state.Store(int32(Closed))
	e.mu.Lock()
	e.pending = nil
	clear(e.targets)
	e.mu.Unlock()
	return nil
}

// Retriggers returns the number of chord retriggers requested so far.
func (e *Engine) Retriggers() int64 {
	return e.retriggers.Load()
}

// SetPhaseObserver installs a hook called on every voice phase change.
func (e *Engine) SetPhaseObserver(fn PhaseObserver) {
	e.enqueue(observerCmd{fn: fn})
}

// SetRoom replaces the room convolver; nil removes it.
func (e *Engine) SetRoom(r *Room, mix Mix) {
	e.enqueue(roomCmd{room: r, mix: mix})
}

func (e *Engine) enqueue(cmds ...command) {
	if e.State() == Closed {
		return
	}
	e.mu.Lock()
	for _, c := range cmds {
		e.pushLocked(c)
	}
	e.mu.Unlock()
}

// pushLocked appends c to the mailbox. A smoothed target overwrites a
// still-pending target on the same param, so ticks that arrive while
// nothing renders don't pile up.
func (e *Engine) pushLocked(c command) {
	pc, ok := c.(paramCmd)
	if !ok {
		e.pending = append(e.pending, c)
		return
	}
	if pc.op != opSetTarget {
		delete(e.targets, pc.p)
		e.pending = append(e.pending, c)
		return
	}
	if i, ok := e.targets[pc.p]; ok {
		e.pending[i] = c
		return
	}
	if e.targets == nil {
		e.targets = make(map[*AudioParam]int)
	}
	e.targets[pc.p] = len(e.pending)
	e.pending = append(e.pending, c)
}

func (e *Engine) drain() {
	e.mu.Lock()
	e.inbox, e.pending = e.pending, e.inbox[:0]
	clear(e.targets)
	e.mu.Unlock()
	e.drainTime = e.CurrentTime()
	for i, c := range e.inbox {
		c.apply(e)
		e.inbox[i] = nil
	}
	e.inbox = e.inbox[:0]
}

// Process renders numFrames of interleaved stereo.
func (e *Engine) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	e.ProcessTo(out)
	return out
}

// ProcessTo renders len(out)/2 frames of interleaved stereo into out.
func (e *Engine) ProcessTo(out []float32) {
	numFrames := len(out) / 2
	e.drain()
	if e.State() != Running {
		clear(out)
		return
	}

	if cap(e.mono) < numFrames {
		e.mono = make([]float32, numFrames)
	}
	mono := e.mono[:numFrames]

	sr := float64(e.sampleRate)
	start := e.frames.Load()
	for i := 0; i < numFrames; i++ {
		t := float64(start+int64(i)) / sr
		mod := e.lfo.next(t)
		var sum float32
		for _, v := range e.voices {
			sum += v.render(t, mod, e.observer)
		}
		mono[i] = sum * float32(e.master.next(t))
	}
	e.frames.Add(int64(numFrames))

	if e.room != nil {
		e.room.ProcessTo(out, mono, e.mix.Dry, e.mix.Wet)
		return
	}
	for i, s := range mono {
		out[2*i] = s
		out[2*i+1] = s
	}
}

type paramOp int

const (
	opSetValue paramOp = iota
	opLinearRamp
	opSetTarget
)

type paramCmd struct {
	p     *AudioParam
	op    paramOp
	value float64
	time  float64
	tau   float64
}

func (c paramCmd) apply(*Engine) {
	switch c.op {
	case opSetValue:
		c.p.SetValueAtTime(c.value, c.time)
	case opLinearRamp:
		c.p.LinearRampToValueAtTime(c.value, c.time)
	case opSetTarget:
		c.p.SetTargetAtTime(c.value, c.time, c.tau)
	}
}

type swapCmd struct {
	voices []*voice
}

func (c swapCmd) apply(e *Engine) {
	e.voices = c.voices
}

type observerCmd struct {
	fn PhaseObserver
}

func (c observerCmd) apply(e *Engine) {
	e.observer = c.fn
}

type roomCmd struct {
	room *Room
	mix  Mix
}

func (c roomCmd) apply(e *Engine) {
	e.room = c.room
	e.mix = c.mix
}
