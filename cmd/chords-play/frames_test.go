package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-chords/control"
	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/sensor"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestDirFramesFeedCamera(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{R: 255, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	frames, err := newDirFrames(dir, 100)
	if err != nil {
		t.Fatalf("newDirFrames: %v", err)
	}
	if len(frames.files) != 1 {
		t.Fatalf("files %v", frames.files)
	}
	if _, ok := frames.NextFrame(); ok {
		t.Fatalf("frame before decoding")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go frames.run(ctx)

	bank := sensor.NewBank()
	cam := sensor.NewCamera(frames)
	deadline := time.Now().Add(2 * time.Second)
	for !cam.Sample(bank) {
		if time.Now().After(deadline) {
			t.Fatalf("no frame decoded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if bank.Reading(sensor.CamRed) <= bank.Reading(sensor.CamBlue) {
		t.Fatalf("red frame read as red=%f blue=%f", bank.Reading(sensor.CamRed), bank.Reading(sensor.CamBlue))
	}
}

func TestDirFramesEmptyDir(t *testing.T) {
	if _, err := newDirFrames(t.TempDir(), 10); err == nil {
		t.Fatalf("empty directory accepted")
	}
	if _, err := newDirFrames(filepath.Join(t.TempDir(), "missing"), 10); err == nil {
		t.Fatalf("missing directory accepted")
	}
}

func TestFormatStatus(t *testing.T) {
	snap := control.Snapshot{
		ActiveChord: 1,
		NumChords:   4,
		Chord:       patch.Chord{0, 4, 7, 11},
		Effective:   patch.DefaultParams(),
		Status:      control.Status{AudioAvailable: true, Paused: true},
	}
	got := formatStatus(snap)
	if !strings.Contains(got, "chord 2/4") || !strings.Contains(got, "[paused]") {
		t.Fatalf("status %q", got)
	}
	snap.Status.AudioAvailable = false
	if got := formatStatus(snap); !strings.Contains(got, "[no audio]") {
		t.Fatalf("status %q", got)
	}
}

func TestStatusLineThrottles(t *testing.T) {
	var buf strings.Builder
	s := newStatusLine(&buf, true, time.Hour)
	s.Update(control.Snapshot{NumChords: 1})
	s.Update(control.Snapshot{NumChords: 1, ActiveChord: 0})
	if n := strings.Count(buf.String(), "\r\x1b[K"); n != 1 {
		t.Fatalf("redrew %d times", n)
	}
	s.finish()
	if !strings.HasSuffix(buf.String(), "\r\n") {
		t.Fatalf("finish did not end the line")
	}
}
