// Package routing maps sensor readings onto synthesis targets through a
// small fixed table of route slots.
package routing

import (
	"math"
	"strings"
	"sync"

	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/sensor"
	"github.com/pkg/errors"
)

// Target is a modulatable synthesis parameter.
type Target int

const (
	Chord Target = iota
	Cutoff
	Detune
	Volume
	ModDepth
	NumTargets
)

var targetNames = [NumTargets]string{"chord", "cutoff", "detune", "volume", "lfoDepth"}

func (t Target) String() string {
	if t < 0 || t >= NumTargets {
		return "unknown"
	}
	return targetNames[t]
}

// ParseTarget maps a target name to its value. "modDepth" and "warp" are
// accepted for the LFO depth target.
func ParseTarget(name string) (Target, error) {
	n := strings.TrimSpace(name)
	switch strings.ToLower(n) {
	case "moddepth", "warp":
		return ModDepth, nil
	case "filter":
		return Cutoff, nil
	}
	for i, s := range targetNames {
		if strings.EqualFold(s, n) {
			return Target(i), nil
		}
	}
	return Chord, errors.Errorf("unknown route target %q", name)
}

// NumSlots is the fixed number of route slots. Slot ids run 1..NumSlots.
const NumSlots = 3

// activityFactor is the lerp factor of the decayed activity value.
const activityFactor = 0.1

// Slot binds one sensor source to one target.
type Slot struct {
	Source sensor.ID
	Target Target
	Gain   float64
	Invert bool
}

// Enabled reports whether the slot routes anything.
func (s Slot) Enabled() bool {
	return s.Source != sensor.None
}

// Normalize applies invert and gain to a raw reading and clamps to [0,1].
func (s Slot) Normalize(reading float64) float64 {
	v := reading
	if s.Invert {
		v = 1 - v
	}
	return clamp(v*s.Gain, 0, 1)
}

// DefaultSlots returns the startup routing.
func DefaultSlots() [NumSlots]Slot {
	return [NumSlots]Slot{
		{Source: sensor.Keyboard, Target: Chord, Gain: 1},
		{Source: sensor.CursorY, Target: Cutoff, Gain: 1},
		{Source: sensor.CursorX, Target: Detune, Gain: 1},
	}
}

// Transform maps a normalized value onto the target's parameter range.
// The chord target yields an index into a bank of numChords.
func Transform(t Target, v float64, numChords int) float64 {
	switch t {
	case Chord:
		return float64(ChordIndex(v, numChords))
	case Cutoff:
		return patch.MinCutoff + v*(patch.MaxCutoff-patch.MinCutoff)
	case Detune:
		return v * patch.MaxDetune
	case Volume:
		return v * patch.MaxVolume
	case ModDepth:
		return v * patch.MaxModDepth
	}
	return 0
}

// ChordIndex maps v in [0,1] to an index in [0, numChords-1].
func ChordIndex(v float64, numChords int) int {
	if numChords <= 0 {
		return 0
	}
	idx := int(math.Floor(v * float64(numChords)))
	if idx > numChords-1 {
		idx = numChords - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Resolution is the result of one resolve pass.
type Resolution struct {
	values  [NumTargets]float64
	drivers [NumTargets]int
	inputs  [NumSlots]float64

	// Entropy is the summed per-slot change of this pass.
	Entropy float64
}

// Value returns the resolved value of t and the id of the slot that drove
// it. ok is false when no slot routes to t.
func (r Resolution) Value(t Target) (value float64, slot int, ok bool) {
	if r.drivers[t] == 0 {
		return 0, 0, false
	}
	return r.values[t], r.drivers[t], true
}

// Driven reports whether any slot routed to t in this pass.
func (r Resolution) Driven(t Target) bool {
	return r.drivers[t] != 0
}

// ChordIndex returns the resolved chord index, if driven.
func (r Resolution) ChordIndex() (int, bool) {
	v, _, ok := r.Value(Chord)
	return int(v), ok
}

// Input returns the normalized value slot id produced in this pass.
func (r Resolution) Input(id int) float64 {
	if id < 1 || id > NumSlots {
		return 0
	}
	return r.inputs[id-1]
}

// Matrix is the route table plus the per-slot history used for activity.
// It is safe for concurrent use.
type Matrix struct {
	mu       sync.RWMutex
	slots    [NumSlots]Slot
	prev     [NumSlots]float64
	activity float64
}

// NewMatrix returns a matrix with the given slots.
func NewMatrix(slots [NumSlots]Slot) *Matrix {
	return &Matrix{slots: slots}
}

// SetSlot replaces slot id (1-based).
func (m *Matrix) SetSlot(id int, s Slot) error {
	if id < 1 || id > NumSlots {
		return errors.Errorf("route slot %d out of range 1..%d", id, NumSlots)
	}
	if s.Source < sensor.None || s.Source >= sensor.NumIDs {
		return errors.Errorf("route slot %d: invalid source %d", id, s.Source)
	}
	if s.Target < Chord || s.Target >= NumTargets {
		return errors.Errorf("route slot %d: invalid target %d", id, s.Target)
	}
	m.mu.Lock()
	m.slots[id-1] = s
	m.mu.Unlock()
	return nil
}

// Slot returns slot id (1-based). Out of range ids return a disabled slot.
func (m *Matrix) Slot(id int) Slot {
	if id < 1 || id > NumSlots {
		return Slot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[id-1]
}

// Slots returns a copy of the table.
func (m *Matrix) Slots() [NumSlots]Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots
}

// IsTargetDriven reports whether any enabled slot routes to t.
func (m *Matrix) IsTargetDriven(t Target) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.slots {
		if s.Enabled() && s.Target == t {
			return true
		}
	}
	return false
}

// UsesCamera reports whether any enabled slot reads a camera source.
func (m *Matrix) UsesCamera() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.slots {
		if sensor.IsCamera(s.Source) {
			return true
		}
	}
	return false
}

// Resolve reads every enabled slot in ascending id order. When several slots
// route to the same target the highest slot id wins: later slots overwrite
// earlier ones. Each call also advances the activity value.
func (m *Matrix) Resolve(r sensor.Reader, numChords int) Resolution {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res Resolution
	for i, s := range m.slots {
		if !s.Enabled() {
			continue
		}
		v := s.Normalize(r.Reading(s.Source))
		res.inputs[i] = v
		res.Entropy += math.Abs(v-m.prev[i]) * 2
		m.prev[i] = v

		res.values[s.Target] = Transform(s.Target, v, numChords)
		res.drivers[s.Target] = i + 1
	}
	m.activity = patch.Lerp(m.activity, res.Entropy, activityFactor)
	return res
}

// Activity returns the decayed measure of how fast routed inputs move.
func (m *Matrix) Activity() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activity
}

// Intensity maps activity to the overlay opacity shown by the visual layer.
func Intensity(activity float64) float64 {
	return clamp(activity*10, 0, 0.9)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
