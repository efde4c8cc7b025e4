package preset

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/patch"
)

// ParseChords reads chord editor text: a JSON array of non-empty arrays of
// semitone offsets from patch.BaseNote. Errors wrap patch.ErrInvalidBank.
func ParseChords(text string) (patch.Bank, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Wrap(patch.ErrInvalidBank, "empty chord text")
	}
	var raw [][]int
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.Wrapf(patch.ErrInvalidBank, "parse chords: %v", err)
	}
	bank := make(patch.Bank, len(raw))
	for i, c := range raw {
		bank[i] = patch.Chord(c)
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return bank, nil
}

// FormatChords renders a bank as editor text, one chord per line.
func FormatChords(bank patch.Bank) string {
	var b strings.Builder
	b.WriteString("[\n")
	for i, c := range bank {
		line, _ := json.Marshal([]int(c))
		b.WriteString("  ")
		b.Write(line)
		if i < len(bank)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("]")
	return b.String()
}
