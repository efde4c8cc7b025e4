package preset

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/patch"
)

// DefaultChords names the bank loaded when nothing else is configured.
const DefaultChords = "lofi_pad"

// builtin chord banks, in the same text form the chord editor accepts.
var builtin = map[string]string{
	"lofi_pad": `[
  [0, 4, 7, 11],
  [-3, 0, 4, 7],
  [-7, -3, 0, 5],
  [-5, -1, 2, 5],
  [2, 5, 9, 12],
  [-1, 2, 5, 9]
]`,
	"neo_soul": `[
  [-2, 2, 5, 9],
  [-7, -3, 0, 4],
  [0, 3, 7, 10],
  [-4, 0, 3, 7],
  [-5, -1, 2, 5, 9]
]`,
	"ambient_fifths": `[
  [0, 7, 14],
  [-5, 2, 9],
  [-3, 4, 11],
  [-8, -1, 6],
  [-10, -3, 4]
]`,
	"minor_251": `[
  [-1, 2, 5, 9],
  [-8, -4, -1, 2],
  [-3, 0, 3, 7]
]`,
	"triads": `[
  [0, 4, 7],
  [2, 5, 9],
  [4, 7, 11],
  [5, 9, 12],
  [7, 11, 14],
  [9, 12, 16],
  [11, 14, 17],
  [12, 16, 19]
]`,
}

// Names lists the builtin chord banks in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for k := range builtin {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Text returns the editor text of a builtin bank.
func Text(name string) (string, bool) {
	s, ok := builtin[name]
	return s, ok
}

// Builtin parses a builtin bank by name.
func Builtin(name string) (patch.Bank, error) {
	text, ok := builtin[name]
	if !ok {
		return nil, errors.Errorf("unknown chord preset %q", name)
	}
	return ParseChords(text)
}
