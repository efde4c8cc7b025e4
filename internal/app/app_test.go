package app

import (
	"log/slog"
	"testing"

	"github.com/cwbudde/algo-chords/preset"
	"github.com/cwbudde/algo-chords/sensor"
)

func TestNewRigPlays(t *testing.T) {
	r, err := New(nil, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()
	r.Bank.SetReading(sensor.Keyboard, 0.99)
	r.Loop.Tick()
	if got, want := r.Loop.Snapshot().ActiveChord, r.Config.Chords.Len()-1; got != want {
		t.Fatalf("active chord %d want %d", got, want)
	}
	out := r.Engine.Process(4800)
	var energy float64
	for _, s := range out {
		energy += float64(s * s)
	}
	if energy == 0 {
		t.Fatalf("rig is silent")
	}
}

func TestNewRigWithoutAudio(t *testing.T) {
	r, err := New(preset.DefaultConfig(), Options{NoAudio: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Engine != nil || r.Loop.Snapshot().Status.AudioAvailable {
		t.Fatalf("audio should be unavailable")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewRigSkipsMissingRoom(t *testing.T) {
	cfg := preset.DefaultConfig()
	cfg.IRWavPath = "/nonexistent/room.wav"
	r, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()
	if r.Engine == nil {
		t.Fatalf("engine missing")
	}
}

func TestNewRigRejectsEmptyBank(t *testing.T) {
	cfg := preset.DefaultConfig()
	cfg.Chords = nil
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatalf("empty bank accepted")
	}
}

func TestSyntheticRoom(t *testing.T) {
	cfg := preset.DefaultConfig()
	cfg.SyntheticRoom = true
	room := loadRoom(cfg, slog.Default())
	if room == nil {
		t.Fatalf("no synthetic room")
	}
	if room.Len() == 0 {
		t.Fatalf("empty synthetic room")
	}

	cfg.IRWavPath = "/nonexistent/room.wav"
	if room := loadRoom(cfg, slog.Default()); room != nil {
		t.Fatalf("recorded IR path must take precedence over the synthetic room")
	}

	r, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()
	if out := r.Engine.Process(256); len(out) != 512 {
		t.Fatalf("process returned %d samples", len(out))
	}
}
