package sensor

import (
	"image"
	"image/color"
	"math"
	"sync"
	"testing"
)

func TestRawSourcesStoreValueUnchanged(t *testing.T) {
	b := NewBank()
	for _, id := range []ID{None, CursorX, CursorY, Keyboard} {
		for _, x := range []float64{0, 0.25, 0.625, 1} {
			b.SetReading(id, x)
			if got := b.Reading(id); got != x {
				t.Fatalf("%s: got %f want %f", id, got, x)
			}
		}
	}
}

func TestSmoothedSourcesMoveBetweenAndConverge(t *testing.T) {
	b := NewBank()
	for _, id := range []ID{CamBrightness, CamRed, CamGreen, CamBlue, Tilt, MotionX} {
		prev := b.Reading(id)
		const x = 0.9
		b.SetReading(id, x)
		got := b.Reading(id)
		if !(got > prev && got < x) {
			t.Fatalf("%s: %f not strictly between %f and %f", id, got, prev, x)
		}
		for i := 0; i < 400; i++ {
			b.SetReading(id, x)
		}
		if math.Abs(b.Reading(id)-x) > 1e-9 {
			t.Fatalf("%s: did not converge, got %f", id, b.Reading(id))
		}
	}
}

func TestSetReadingClamps(t *testing.T) {
	b := NewBank()
	b.SetReading(Keyboard, 3)
	if got := b.Reading(Keyboard); got != 1 {
		t.Fatalf("clamp high: got %f", got)
	}
	b.SetReading(CursorX, -2)
	if got := b.Reading(CursorX); got != 0 {
		t.Fatalf("clamp low: got %f", got)
	}
	b.SetReading(CursorY, math.NaN())
	if got := b.Reading(CursorY); got != 0 {
		t.Fatalf("NaN should store 0, got %f", got)
	}
}

func TestRestingValues(t *testing.T) {
	b := NewBank()
	want := map[ID]float64{CursorX: 0.5, CursorY: 0.5, Tilt: 0.5, MotionX: 0.5, Keyboard: 0, CamRed: 0}
	for id, w := range want {
		if got := b.Reading(id); got != w {
			t.Fatalf("%s: got %f want %f", id, got, w)
		}
	}
}

func TestConcurrentSmoothedWritesStayInRange(t *testing.T) {
	b := NewBank()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b.SetReading(Tilt, float64(w%2))
			}
		}(w)
	}
	wg.Wait()
	if v := b.Reading(Tilt); v < 0 || v > 1 {
		t.Fatalf("tilt out of range: %f", v)
	}
}

func TestParseID(t *testing.T) {
	for id := None; id < NumIDs; id++ {
		got, err := ParseID(id.String())
		if err != nil || got != id {
			t.Fatalf("ParseID(%q) = %v, %v", id.String(), got, err)
		}
	}
	if _, err := ParseID("lidar"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestProducerConversions(t *testing.T) {
	if got := TiltFromBeta(90); got != 1 {
		t.Fatalf("tilt clamp: %f", got)
	}
	if got := TiltFromBeta(0); got != 0.5 {
		t.Fatalf("tilt centre: %f", got)
	}
	if got := MotionFromAccel(0); got != 0.5 {
		t.Fatalf("motion centre: %f", got)
	}
	cx, cy := CursorPosition(0, 0, 800, 600)
	if cx != 0 || cy != 1 {
		t.Fatalf("cursor top-left: %f %f", cx, cy)
	}
	if got := KeyboardValue(2, 4); got != 0.625 {
		t.Fatalf("keyboard value: %f", got)
	}
	if i, ok := KeyIndex('='); !ok || i != 11 {
		t.Fatalf("key '=': %d %v", i, ok)
	}
	if _, ok := KeyIndex('q'); ok {
		t.Fatalf("'q' must not map to a chord")
	}
}

type staticFrames struct {
	img   image.Image
	ready bool
}

func (s *staticFrames) NextFrame() (image.Image, bool) {
	return s.img, s.ready
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCameraSampleFeedsSmoothedChannels(t *testing.T) {
	src := &staticFrames{img: solid(64, 48, color.RGBA{R: 255, G: 0, B: 51, A: 255}), ready: true}
	cam := NewCamera(src)
	b := NewBank()
	for i := 0; i < 300; i++ {
		if !cam.Sample(b) {
			t.Fatalf("sample %d reported no frame", i)
		}
	}
	if math.Abs(b.Reading(CamRed)-1) > 1e-3 {
		t.Fatalf("red: %f", b.Reading(CamRed))
	}
	if math.Abs(b.Reading(CamBlue)-0.2) > 1e-3 {
		t.Fatalf("blue: %f", b.Reading(CamBlue))
	}
	if math.Abs(b.Reading(CamBrightness)-0.4) > 1e-3 {
		t.Fatalf("brightness: %f", b.Reading(CamBrightness))
	}
}

func TestCameraSkipsWhenNoFrameOrUnavailable(t *testing.T) {
	src := &staticFrames{img: solid(8, 8, color.RGBA{R: 255, A: 255})}
	cam := NewCamera(src)
	b := NewBank()
	if cam.Sample(b) {
		t.Fatalf("no frame ready, expected skip")
	}
	src.ready = true
	cam.SetUnavailable(nil)
	if cam.Sample(b) || cam.Available() {
		t.Fatalf("unavailable camera must not sample")
	}
	if b.Reading(CamRed) != 0 {
		t.Fatalf("reading changed while skipped")
	}
	if NewCamera(nil).Available() {
		t.Fatalf("nil source should be unavailable")
	}
}
