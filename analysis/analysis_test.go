package analysis

import (
	"math"
	"testing"
)

func sine(sr int, hz float64, seconds float64, amp float64) []float64 {
	n := int(float64(sr) * seconds)
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*hz*float64(i)/float64(sr))
	}
	return x
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		hz float64
	}{
		{220}, {261.63}, {440}, {1234.5},
	}
	for _, tt := range tests {
		got, err := DominantFrequency(sine(48000, tt.hz, 0.5, 0.5), 48000)
		if err != nil {
			t.Fatalf("DominantFrequency(%v): %v", tt.hz, err)
		}
		if math.Abs(got-tt.hz) > 1.0 {
			t.Fatalf("DominantFrequency = %f want %f", got, tt.hz)
		}
	}
}

func TestDominantFrequencyRejectsShortInput(t *testing.T) {
	if _, err := DominantFrequency([]float64{1, 2}, 48000); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMaxStepFindsClick(t *testing.T) {
	x := sine(48000, 100, 0.1, 0.1)
	x[1000] += 0.8
	step, at := MaxStep(x)
	if at != 1000 && at != 1001 {
		t.Fatalf("click found at %d", at)
	}
	if step < 0.7 {
		t.Fatalf("step %f", step)
	}
	smooth, _ := MaxStep(sine(48000, 100, 0.1, 0.1))
	if smooth > 0.01 {
		t.Fatalf("smooth sine step %f", smooth)
	}
}

func TestAnalyze(t *testing.T) {
	x := sine(48000, 440, 0.25, 0.5)
	x = append(x, math.NaN())
	r := Analyze(x, 48000)
	if r.NonFinite != 1 {
		t.Fatalf("non-finite count %d", r.NonFinite)
	}
	if r.DominantHz != 0 {
		t.Fatalf("pitch estimated on non-finite input")
	}

	r = Analyze(sine(48000, 440, 0.25, 0.5), 48000)
	if math.Abs(r.RMS-0.5/math.Sqrt2) > 1e-3 || math.Abs(r.Peak-0.5) > 1e-3 {
		t.Fatalf("rms=%f peak=%f", r.RMS, r.Peak)
	}
	if math.Abs(r.DominantHz-440) > 1 {
		t.Fatalf("pitch %f", r.DominantHz)
	}
	if silent := Analyze(make([]float64, 1000), 48000); silent.DominantHz != 0 || silent.RMS != 0 {
		t.Fatalf("silence report %+v", silent)
	}
}

func TestBandLevelsFavourSignalBand(t *testing.T) {
	levels, err := BandLevels(sine(48000, 500, 0.5, 0.5), 48000, DefaultBands)
	if err != nil {
		t.Fatalf("BandLevels: %v", err)
	}
	for i, l := range levels {
		if i != 2 && l >= levels[2] {
			t.Fatalf("band %s (%f dB) >= low-mid (%f dB)", DefaultBands[i].Name, l, levels[2])
		}
	}
}

func TestRMSEnvelope(t *testing.T) {
	x := append(make([]float64, 480), sine(48000, 1000, 0.01, 1)...)
	env := RMSEnvelope(x, 480, 480)
	if len(env) != 2 || env[0] != 0 || env[1] < 0.5 {
		t.Fatalf("envelope %v", env)
	}
	if RMSEnvelope(x, 0, 1) != nil {
		t.Fatalf("zero frame accepted")
	}
}
