package patch

import (
	"fmt"

	"github.com/pkg/errors"
)

// BaseNote is the MIDI note every chord offset is relative to (D#4).
const BaseNote = 63

// ErrInvalidBank is the cause of every chord bank validation failure.
var ErrInvalidBank = errors.New("invalid chord bank")

// Chord is an ordered list of semitone offsets from BaseNote.
// An empty chord is silent.
type Chord []int

// Note returns the MIDI note played by the given voice. Chords shorter than
// the voice pool cycle their offsets across voices.
func (c Chord) Note(voice int) int {
	if len(c) == 0 {
		return BaseNote
	}
	if voice < 0 {
		voice = -voice
	}
	return BaseNote + c[voice%len(c)]
}

// Silent reports whether the chord plays nothing.
func (c Chord) Silent() bool {
	return len(c) == 0
}

// Bank is an ordered set of chords.
type Bank []Chord

// Validate checks that the bank is usable for playback.
func (b Bank) Validate() error {
	if len(b) == 0 {
		return errors.Wrap(ErrInvalidBank, "bank has no chords")
	}
	for i, c := range b {
		if len(c) == 0 {
			return errors.Wrapf(ErrInvalidBank, "chord %d is empty", i+1)
		}
	}
	return nil
}

// Len returns the number of chords.
func (b Bank) Len() int {
	return len(b)
}

// At returns the chord at index, wrapping modulo the bank length. An empty
// bank yields a silent chord.
func (b Bank) At(index int) Chord {
	if len(b) == 0 {
		return nil
	}
	return b[WrapIndex(index, len(b))]
}

// ClampIndex returns index if it addresses a chord, otherwise 0.
func (b Bank) ClampIndex(index int) int {
	if index < 0 || index >= len(b) {
		return 0
	}
	return index
}

// Clone returns a deep copy so callers can't mutate a live bank.
func (b Bank) Clone() Bank {
	out := make(Bank, len(b))
	for i, c := range b {
		out[i] = append(Chord(nil), c...)
	}
	return out
}

// String renders the bank the way the chord editor shows it.
func (b Bank) String() string {
	return fmt.Sprint([]Chord(b))
}

// WrapIndex maps any index into [0, n). n must be positive.
func WrapIndex(index, n int) int {
	index %= n
	if index < 0 {
		index += n
	}
	return index
}
