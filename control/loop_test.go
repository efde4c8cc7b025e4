package control

import (
	"bytes"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/routing"
	"github.com/cwbudde/algo-chords/sensor"
	"github.com/cwbudde/algo-chords/synth"
)

var testChords = patch.Bank{
	{0, 4, 7},
	{2, 5, 9},
	{-1, 2, 7},
	{0, 3, 7, 10},
}

func newTestLoop(t *testing.T, cfg Config) (*Loop, *synth.Engine) {
	t.Helper()
	e := synth.NewEngine(48000)
	if cfg.Chords == nil {
		cfg.Chords = testChords
	}
	if cfg.Params == (patch.Params{}) {
		cfg.Params = patch.DefaultParams()
	}
	cfg.Graph = synth.NewVoiceGraph(e, patch.DefaultOscillators(), cfg.Params, cfg.Chords.At(cfg.Params.ActiveChord))
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, e
}

func TestKeyboardSequenceRetriggersOnlyOnChange(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	before := e.Retriggers()
	for _, idx := range []int{0, 0, 1, 1, 0} {
		l.Bank().SetReading(sensor.Keyboard, sensor.KeyboardValue(idx, len(testChords)))
		l.Tick()
		e.Process(800)
	}
	if got := e.Retriggers() - before; got != 2 {
		t.Fatalf("retriggers = %d want 2", got)
	}
}

func TestKeyboardValueSelectsChord(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	l.Bank().SetReading(sensor.Keyboard, 0.625)
	l.Tick()
	s := l.Snapshot()
	if s.ActiveChord != 2 {
		t.Fatalf("active chord = %d want 2", s.ActiveChord)
	}
	if !s.Driven[routing.Chord] {
		t.Fatalf("chord target should be driven")
	}
	if got := s.Chord.Note(0); got != patch.BaseNote-1 {
		t.Fatalf("voice 0 note = %d", got)
	}
	out := e.Process(4800)
	for i, v := range out {
		if v != v {
			t.Fatalf("NaN at %d", i)
		}
	}
}

func TestReplaceChordsClampsIndex(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	l.SelectChord(3)
	before := e.Retriggers()
	if err := l.ReplaceChords(patch.Bank{{0}, {5}}); err != nil {
		t.Fatalf("ReplaceChords: %v", err)
	}
	if got := l.Snapshot().ActiveChord; got != 0 {
		t.Fatalf("active chord = %d want 0", got)
	}
	if e.Retriggers() != before+1 {
		t.Fatalf("replacement must replay the chord")
	}
}

func TestReplaceChordsRejectsInvalidBank(t *testing.T) {
	l, _ := newTestLoop(t, Config{})
	l.SelectChord(2)
	for _, bad := range []patch.Bank{nil, {{0}, {}}} {
		err := l.ReplaceChords(bad)
		if err == nil {
			t.Fatalf("bank %v accepted", bad)
		}
		if !strings.Contains(err.Error(), patch.ErrInvalidBank.Error()) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if got := l.Chords(); len(got) != len(testChords) {
		t.Fatalf("bank changed to %v", got)
	}
	if got := l.Snapshot().ActiveChord; got != 2 {
		t.Fatalf("active chord = %d", got)
	}
}

func TestTickWithoutEngineIsNoop(t *testing.T) {
	var published int
	l, err := New(Config{
		Chords: testChords,
		Params: patch.DefaultParams(),
		Visual: VisualFunc(func(Snapshot) { published++ }),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Bank().SetReading(sensor.Keyboard, 0.9)
	l.Tick()
	s := l.Snapshot()
	if s.Ticks != 0 {
		t.Fatalf("tick ran without engine")
	}
	if published != 1 {
		t.Fatalf("status published %d times want 1", published)
	}
	if s.ActiveChord != 0 {
		t.Fatalf("chord committed without engine")
	}
	if s.Status.AudioAvailable {
		t.Fatalf("audio reported available")
	}
}

func TestClosedEngineMakesTickNoop(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	_ = e.Close()
	l.Bank().SetReading(sensor.Keyboard, 0.9)
	l.Tick()
	if s := l.Snapshot(); s.ActiveChord != 0 || s.Status.AudioAvailable {
		t.Fatalf("snapshot after closed tick: %+v", s.Status)
	}
}

func TestRoutedValueShadowsManual(t *testing.T) {
	var last Snapshot
	l, _ := newTestLoop(t, Config{Visual: VisualFunc(func(s Snapshot) { last = s })})
	l.Bank().SetReading(sensor.CursorY, 1)
	l.Tick()
	if last.Effective.Cutoff != patch.MaxCutoff {
		t.Fatalf("effective cutoff = %f", last.Effective.Cutoff)
	}
	if last.Manual.Cutoff != patch.DefaultParams().Cutoff {
		t.Fatalf("manual cutoff overwritten: %f", last.Manual.Cutoff)
	}
	if last.Effective.Volume != last.Manual.Volume {
		t.Fatalf("undriven volume should follow manual")
	}

	if err := l.SetRoute(2, routing.Slot{Source: sensor.None, Target: routing.Cutoff, Gain: 1}); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}
	l.Tick()
	if last.Effective.Cutoff != last.Manual.Cutoff {
		t.Fatalf("manual cutoff not restored after unrouting: %f", last.Effective.Cutoff)
	}
}

func TestSelectChordWrapsAndMirrorsKeyboard(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	before := e.Retriggers()
	l.SelectChord(5)
	if got := l.Snapshot().ActiveChord; got != 1 {
		t.Fatalf("active = %d want 1", got)
	}
	if got := l.Bank().Reading(sensor.Keyboard); got != sensor.KeyboardValue(1, 4) {
		t.Fatalf("keyboard reading %f", got)
	}
	l.Tick()
	l.SelectChord(1)
	if got := e.Retriggers() - before; got != 1 {
		t.Fatalf("retriggers = %d want 1", got)
	}
}

func TestKeyPress(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	if !l.KeyPress('2') {
		t.Fatalf("key 2 ignored")
	}
	if got := l.Snapshot().ActiveChord; got != 1 {
		t.Fatalf("active = %d", got)
	}
	if l.KeyPress('9') {
		t.Fatalf("key beyond bank accepted")
	}
	if l.KeyPress('q') {
		t.Fatalf("unmapped key accepted")
	}
	l.KeyPress(' ')
	if !l.Snapshot().Status.Paused || e.State() != synth.Suspended {
		t.Fatalf("space did not pause")
	}
	l.KeyPress(' ')
	if l.Snapshot().Status.Paused || e.State() != synth.Running {
		t.Fatalf("space did not resume")
	}
}

func TestPauseStopsTicks(t *testing.T) {
	l, e := newTestLoop(t, Config{})
	l.Pause()
	l.Bank().SetReading(sensor.Keyboard, 0.9)
	l.Tick()
	if l.Snapshot().ActiveChord != 0 {
		t.Fatalf("paused tick committed a chord")
	}
	frames := e.Frames()
	e.Process(480)
	if e.Frames() != frames {
		t.Fatalf("engine clock moved while paused")
	}
	l.Resume()
	l.Tick()
	if l.Snapshot().ActiveChord != 3 {
		t.Fatalf("tick after resume did not commit")
	}
}

func TestSetOscillatorValidatesChannel(t *testing.T) {
	l, _ := newTestLoop(t, Config{})
	if err := l.SetOscillator(3, patch.OscillatorConfig{}); err == nil {
		t.Fatalf("channel 3 accepted")
	}
	cfg := patch.OscillatorConfig{Wave: patch.Square, Octave: 5, Gain: 0.3, Enabled: true}
	if err := l.SetOscillator(patch.ChannelC, cfg); err != nil {
		t.Fatalf("SetOscillator: %v", err)
	}
	if got := l.Oscillators()[patch.ChannelC]; got.Octave != patch.MaxOctave || !got.Enabled {
		t.Fatalf("channel C = %+v", got)
	}
}

func TestChordChangeIsLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l, _ := newTestLoop(t, Config{Logger: logger})
	l.SelectChord(2)
	if !strings.Contains(buf.String(), "chord change") || !strings.Contains(buf.String(), "index=3") {
		t.Fatalf("log output: %q", buf.String())
	}
}

type countingTicker struct {
	n atomic.Int64
}

func (c *countingTicker) Tick() { c.n.Add(1) }

func TestDriverStartStop(t *testing.T) {
	c := &countingTicker{}
	d := NewDriver(c, 500)
	d.Start(t.Context())
	d.Start(t.Context())
	time.Sleep(50 * time.Millisecond)
	d.Stop()
	n := c.n.Load()
	if n == 0 {
		t.Fatalf("driver never ticked")
	}
	if d.Running() {
		t.Fatalf("still running after Stop")
	}
	time.Sleep(20 * time.Millisecond)
	if c.n.Load() != n {
		t.Fatalf("ticked after Stop")
	}

	d.Start(t.Context())
	time.Sleep(20 * time.Millisecond)
	d.Stop()
	if c.n.Load() == n {
		t.Fatalf("restart did not tick")
	}
}

func TestNoopTickPublishesStatus(t *testing.T) {
	var seen []Status
	visual := VisualFunc(func(s Snapshot) { seen = append(seen, s.Status) })

	silent, err := New(Config{Chords: testChords, Params: patch.DefaultParams(), Visual: visual})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	silent.Tick()
	if len(seen) != 1 || seen[0].AudioAvailable {
		t.Fatalf("status without engine: %+v", seen)
	}

	seen = nil
	l, _ := newTestLoop(t, Config{Visual: visual})
	l.Pause()
	l.Bank().SetReading(sensor.Keyboard, 0.9)
	l.Tick()
	if len(seen) != 1 || !seen[0].Paused || !seen[0].AudioAvailable {
		t.Fatalf("status while paused: %+v", seen)
	}
	if l.Snapshot().ActiveChord != 0 {
		t.Fatalf("paused tick committed a chord")
	}
	l.Resume()
	l.Tick()
	if last := seen[len(seen)-1]; last.Paused {
		t.Fatalf("status after resume still paused")
	}
}

func TestSetRouteConcurrentWithTick(t *testing.T) {
	l, _ := newTestLoop(t, Config{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			tgt := routing.Cutoff
			if i%2 == 0 {
				tgt = routing.Volume
			}
			if err := l.SetRoute(2, routing.Slot{Source: sensor.CursorY, Target: tgt, Gain: 1}); err != nil {
				t.Errorf("SetRoute: %v", err)
				return
			}
		}
	}()
	for i := 0; i < 200; i++ {
		l.Tick()
	}
	<-done
	if err := l.SetRoute(4, routing.Slot{}); err == nil {
		t.Fatalf("slot 4 accepted")
	}
	if got := l.Matrix().Slot(2).Target; got != routing.Cutoff {
		t.Fatalf("slot 2 target = %s want cutoff", got)
	}
}
