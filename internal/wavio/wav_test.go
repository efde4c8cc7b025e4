package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteReadStereoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tone.wav")
	const sr = 8000
	data := make([]float32, 2*sr/10)
	for i := 0; i < len(data)/2; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
		data[2*i] = v
		data[2*i+1] = -v
	}
	if err := WriteStereo(path, data, sr); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}
	left, right, rate, err := ReadStereo(path)
	if err != nil {
		t.Fatalf("ReadStereo: %v", err)
	}
	if rate != sr || len(left) != len(data)/2 {
		t.Fatalf("rate=%d frames=%d", rate, len(left))
	}
	for i := range left {
		if math.Abs(float64(left[i]-data[2*i])) > 1e-3 || math.Abs(float64(right[i]+left[i])) > 1e-3 {
			t.Fatalf("frame %d: %f/%f", i, left[i], right[i])
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, _, _, err := ReadStereo(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := []float32{1, 2, 3}
	out, err := Resample32(in, 48000, 48000)
	if err != nil || &out[0] != &in[0] {
		t.Fatalf("expected passthrough, err=%v", err)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS([]float32{1, -1, 1, -1}); got != 1 {
		t.Fatalf("rms=%f", got)
	}
	if RMS(nil) != 0 {
		t.Fatalf("empty rms")
	}
	if m := StereoToMono([]float32{1, 0, 0.5, 0.5}); m[0] != 0.5 || m[1] != 0.5 {
		t.Fatalf("mono=%v", m)
	}
}
