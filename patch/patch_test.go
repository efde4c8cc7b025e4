package patch

import (
	"testing"

	"github.com/pkg/errors"
)

func TestBankValidate(t *testing.T) {
	tests := []struct {
		name string
		bank Bank
		ok   bool
	}{
		{"valid", Bank{{0, 4, 7}, {0, 3, 7}}, true},
		{"empty", Bank{}, false},
		{"empty chord", Bank{{0, 4, 7}, {}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bank.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected error")
				}
				if errors.Cause(err) != ErrInvalidBank {
					t.Fatalf("cause mismatch: %v", err)
				}
			}
		})
	}
}

func TestBankAtWrapsAndFallsBack(t *testing.T) {
	b := Bank{{0, 4, 7}, {0, 3, 7}}
	if got := b.At(3); got[1] != 3 {
		t.Fatalf("wrap mismatch: %v", got)
	}
	if got := b.At(-1); got[1] != 3 {
		t.Fatalf("negative wrap mismatch: %v", got)
	}
	if got := (Bank{}).At(2); !got.Silent() {
		t.Fatalf("empty bank should give a silent chord, got %v", got)
	}
}

func TestBankClampIndex(t *testing.T) {
	b := Bank{{0}, {2}}
	if got := b.ClampIndex(3); got != 0 {
		t.Fatalf("ClampIndex(3)=%d want 0", got)
	}
	if got := b.ClampIndex(1); got != 1 {
		t.Fatalf("ClampIndex(1)=%d want 1", got)
	}
}

func TestChordNoteCyclesAcrossVoices(t *testing.T) {
	c := Chord{0, 4, 7}
	want := []int{63, 67, 70, 63}
	for v, w := range want {
		if got := c.Note(v); got != w {
			t.Fatalf("voice %d: got %d want %d", v, got, w)
		}
	}
}

func TestParamsClamped(t *testing.T) {
	p := Params{ActiveChord: -2, Volume: 2, Cutoff: 10, Detune: 40, ModDepth: -1, ModRate: 0}.Clamped()
	if p.ActiveChord != 0 || p.Volume != MaxVolume || p.Cutoff != MinCutoff || p.Detune != MaxDetune || p.ModDepth != 0 || p.ModRate != MinModRate {
		t.Fatalf("clamp mismatch: %+v", p)
	}
}

func TestParseWaveform(t *testing.T) {
	for _, name := range []string{"sawtooth", "square", "sine", "triangle"} {
		w, err := ParseWaveform(name)
		if err != nil {
			t.Fatalf("ParseWaveform(%q): %v", name, err)
		}
		if w.String() != name {
			t.Fatalf("round trip mismatch: %q -> %q", name, w.String())
		}
	}
	if w, err := ParseWaveform(" SAW "); err != nil || w != Sawtooth {
		t.Fatalf("saw alias: %v %v", w, err)
	}
	if _, err := ParseWaveform("noise"); err == nil {
		t.Fatalf("expected error for unknown waveform")
	}
}

func TestOscillatorsCompare(t *testing.T) {
	a := DefaultOscillators()
	b := a
	b[ChannelC].Gain = 0.9
	if !a.SameWaves(b) || !a.SameOctaves(b) {
		t.Fatalf("gain change must not count as wave or octave change")
	}
	b[ChannelA].Wave = Sawtooth
	if a.SameWaves(b) {
		t.Fatalf("wave change not detected")
	}
	if got := (OscillatorConfig{Gain: 0.7}).EffectiveGain(); got != 0 {
		t.Fatalf("disabled channel gain = %f", got)
	}
}
