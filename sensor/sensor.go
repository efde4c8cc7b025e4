// Package sensor holds the latest normalized reading of every sensor source.
package sensor

import (
	"math"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ID identifies a sensor source.
type ID int

const (
	None ID = iota
	CamBrightness
	CamRed
	CamGreen
	CamBlue
	CursorX
	CursorY
	Keyboard
	Tilt
	MotionX
	NumIDs
)

// SmoothingFactor is the per-sample lerp factor of smoothed sources.
const SmoothingFactor = 0.1

var idNames = [NumIDs]string{
	"none", "camBright", "camRed", "camGreen", "camBlue",
	"cursorX", "cursorY", "keyboard", "tilt", "motionX",
}

func (id ID) String() string {
	if id < 0 || id >= NumIDs {
		return "unknown"
	}
	return idNames[id]
}

// ParseID maps a source name to its ID. Matching ignores case.
func ParseID(name string) (ID, error) {
	n := strings.TrimSpace(name)
	for i, s := range idNames {
		if strings.EqualFold(s, n) {
			return ID(i), nil
		}
	}
	return None, errors.Errorf("unknown sensor source %q", name)
}

// IsCamera reports whether id is derived from the camera image.
func IsCamera(id ID) bool {
	return id >= CamBrightness && id <= CamBlue
}

// Smoothed reports whether readings of id are lerped against the stored
// value instead of replacing it.
func Smoothed(id ID) bool {
	return IsCamera(id) || id == Tilt || id == MotionX
}

// Reader is the read side of a Bank.
type Reader interface {
	Reading(id ID) float64
}

// Bank stores one reading per source. Every field is updated atomically on
// its own; there is no cross-field consistency.
type Bank struct {
	values [NumIDs]atomic.Uint64
}

// NewBank returns a bank holding the resting value of every source.
func NewBank() *Bank {
	b := &Bank{}
	b.Reset()
	return b
}

// Reset restores resting values: centred cursor, tilt and motion, zero elsewhere.
func (b *Bank) Reset() {
	for id := None; id < NumIDs; id++ {
		b.store(id, restingValue(id))
	}
}

func restingValue(id ID) float64 {
	switch id {
	case CursorX, CursorY, Tilt, MotionX:
		return 0.5
	default:
		return 0
	}
}

// SetReading clamps raw to [0,1] and stores it, smoothing camera, tilt and
// motion sources.
func (b *Bank) SetReading(id ID, raw float64) {
	v := clamp01(raw)
	if !Smoothed(id) {
		b.store(id, v)
		return
	}
	slot := &b.values[id]
	for {
		old := slot.Load()
		prev := math.Float64frombits(old)
		next := prev + (v-prev)*SmoothingFactor
		if slot.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

// Reading returns the stored value of id.
func (b *Bank) Reading(id ID) float64 {
	return math.Float64frombits(b.values[id].Load())
}

// Snapshot copies every reading. Fields are read one by one.
func (b *Bank) Snapshot() [NumIDs]float64 {
	var out [NumIDs]float64
	for id := None; id < NumIDs; id++ {
		out[id] = b.Reading(id)
	}
	return out
}

func (b *Bank) store(id ID, v float64) {
	b.values[id].Store(math.Float64bits(v))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
