package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/routing"
	"github.com/cwbudde/algo-chords/sensor"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesOverrides(t *testing.T) {
	path := writePreset(t, `{
  "volume": 0.3,
  "cutoff": 2400,
  "lfo_rate": 1.5,
  "ir_wav_path": "rooms/hall.wav",
  "synthetic_room": true,
  "tick_hz": 30,
  "oscillators": {
    "c": {"wave": "saw", "octave": -2, "enabled": true}
  },
  "routes": {
    "2": {"source": "tilt", "target": "volume", "invert": true}
  },
  "chords": [[0, 7], [5, 12], [-2, 3]],
  "active_chord": 2
}`)

	c, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if c.Params.Volume != 0.3 || c.Params.Cutoff != 2400 || c.Params.ModRate != 1.5 {
		t.Fatalf("params mismatch: %+v", c.Params)
	}
	if c.Params.Detune != patch.DefaultParams().Detune {
		t.Fatalf("unset detune changed: %f", c.Params.Detune)
	}
	if c.Params.ActiveChord != 2 || c.Chords.Len() != 3 {
		t.Fatalf("chords mismatch: active=%d bank=%v", c.Params.ActiveChord, c.Chords)
	}
	osc := c.Oscillators[patch.ChannelC]
	if osc.Wave != patch.Sawtooth || osc.Octave != -2 || !osc.Enabled || osc.Gain != 0.5 {
		t.Fatalf("oscillator C = %+v", osc)
	}
	if c.Oscillators[patch.ChannelA] != patch.DefaultOscillators()[patch.ChannelA] {
		t.Fatalf("oscillator A changed")
	}
	r := c.Routes[1]
	if r.Source != sensor.Tilt || r.Target != routing.Volume || !r.Invert || r.Gain != 1 {
		t.Fatalf("route 2 = %+v", r)
	}
	want := filepath.Join(filepath.Dir(path), "rooms", "hall.wav")
	if c.IRWavPath != want {
		t.Fatalf("ir path: got=%q want=%q", c.IRWavPath, want)
	}
	if !c.SyntheticRoom {
		t.Fatalf("synthetic_room not applied")
	}
	if c.TickHz != 30 || c.SampleRate != 48000 {
		t.Fatalf("tick=%f sr=%d", c.TickHz, c.SampleRate)
	}
}

func TestLoadJSONBuiltinChordName(t *testing.T) {
	c, err := LoadJSON(writePreset(t, `{"chords": "triads"}`))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	want, _ := Builtin("triads")
	if c.Chords.String() != want.String() {
		t.Fatalf("chords %v want %v", c.Chords, want)
	}
}

func TestLoadJSONRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"range", `{"cutoff": 9000}`, "cutoff"},
		{"osc key", `{"oscillators": {"d": {}}}`, "oscillator key"},
		{"wave", `{"oscillators": {"a": {"wave": "noise"}}}`, "noise"},
		{"route key", `{"routes": {"4": {}}}`, "route key"},
		{"source", `{"routes": {"1": {"source": "gps"}}}`, "gps"},
		{"active", `{"active_chord": 99}`, "active_chord"},
		{"empty chord", `{"chords": [[0], []]}`, "invalid chord bank"},
		{"unknown bank", `{"chords": "polka"}`, "polka"},
		{"tick", `{"tick_hz": 0}`, "tick_hz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON(writePreset(t, tt.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseChords(t *testing.T) {
	bank, err := ParseChords(" [[0, 4, 7], [-12]] \n")
	if err != nil {
		t.Fatalf("ParseChords: %v", err)
	}
	if bank.Len() != 2 || bank[1][0] != -12 {
		t.Fatalf("bank %v", bank)
	}
	for _, bad := range []string{"", "[]", "[[]]", "[[0, 1.5]]", "{\"a\":1}", "[[0],"} {
		_, err := ParseChords(bad)
		if errors.Cause(err) != patch.ErrInvalidBank {
			t.Fatalf("ParseChords(%q) cause = %v", bad, errors.Cause(err))
		}
	}
}

func TestBuiltinsParse(t *testing.T) {
	names := Names()
	if len(names) == 0 || names[0] > names[len(names)-1] {
		t.Fatalf("names %v", names)
	}
	for _, name := range names {
		bank, err := Builtin(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		round, err := ParseChords(FormatChords(bank))
		if err != nil || round.String() != bank.String() {
			t.Fatalf("%s: format/parse mismatch %v vs %v (%v)", name, round, bank, err)
		}
	}
	if _, err := Builtin("nope"); err == nil {
		t.Fatalf("unknown builtin accepted")
	}
}
