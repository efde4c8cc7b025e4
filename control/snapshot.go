package control

import (
	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/routing"
)

// Status reports which optional capabilities are usable.
type Status struct {
	AudioAvailable  bool
	CameraAvailable bool
	Paused          bool
}

// Snapshot is the state published after every tick.
type Snapshot struct {
	Ticks uint64

	Manual    patch.Params
	Effective patch.Params
	Driven    [routing.NumTargets]bool

	ActiveChord int
	Chord       patch.Chord
	NumChords   int

	Activity  float64
	Intensity float64

	Status Status
}

// Visual receives a snapshot per tick. Update is called with the loop lock
// held and must return quickly.
type Visual interface {
	Update(Snapshot)
}

// VisualFunc adapts a function to Visual.
type VisualFunc func(Snapshot)

func (f VisualFunc) Update(s Snapshot) { f(s) }
