// Package control runs the per-tick pipeline from sensors through the
// routing matrix into the voice graph.
package control

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/routing"
	"github.com/cwbudde/algo-chords/sensor"
	"github.com/cwbudde/algo-chords/synth"
)

// Config wires a Loop. Bank and Matrix default to fresh instances; Graph,
// Camera and Visual are optional.
type Config struct {
	Bank   *sensor.Bank
	Matrix *routing.Matrix
	Camera *sensor.Camera
	Graph  *synth.VoiceGraph
	Visual Visual
	Logger *slog.Logger

	Chords      patch.Bank
	Params      patch.Params
	Oscillators patch.Oscillators
}

// Loop owns the committed chord and the manual parameter values. Tick and
// the configuration methods are safe for concurrent use.
type Loop struct {
	mu sync.Mutex

	bank   *sensor.Bank
	matrix *routing.Matrix
	camera *sensor.Camera
	graph  *synth.VoiceGraph
	visual Visual
	logger *slog.Logger

	chords    patch.Bank
	manual    patch.Params
	effective patch.Params
	oscs      patch.Oscillators
	committed int
	paused    bool

	ticks uint64
	last  Snapshot
}

// New validates the chord bank and builds a loop.
func New(cfg Config) (*Loop, error) {
	if err := cfg.Chords.Validate(); err != nil {
		return nil, err
	}
	l := &Loop{
		bank:   cfg.Bank,
		matrix: cfg.Matrix,
		camera: cfg.Camera,
		graph:  cfg.Graph,
		visual: cfg.Visual,
		logger: cfg.Logger,
		chords: cfg.Chords.Clone(),
		manual: cfg.Params.Clamped(),
		oscs:   cfg.Oscillators,
	}
	if l.bank == nil {
		l.bank = sensor.NewBank()
	}
	if l.matrix == nil {
		l.matrix = routing.NewMatrix(routing.DefaultSlots())
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.graph != nil {
		l.oscs = l.graph.Oscillators()
	}
	l.committed = l.chords.ClampIndex(l.manual.ActiveChord)
	l.manual.ActiveChord = l.committed
	l.effective = l.manual
	l.last = l.snapshotLocked(routing.Resolution{})
	return l, nil
}

// Bank returns the sensor bank producers write into.
func (l *Loop) Bank() *sensor.Bank {
	return l.bank
}

// Matrix returns the routing matrix.
func (l *Loop) Matrix() *routing.Matrix {
	return l.matrix
}

func (l *Loop) audioAvailable() bool {
	return l.graph != nil && l.graph.Engine().State() != synth.Closed
}

func (l *Loop) cameraAvailable() bool {
	return l.camera != nil && l.camera.Available()
}

// Tick runs one control pass. While paused or without a usable engine it
// only publishes the status flags.
func (l *Loop) Tick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused || !l.audioAvailable() {
		l.publishStatusLocked()
		return
	}

	if l.camera != nil && l.matrix.UsesCamera() {
		l.camera.Sample(l.bank)
	}

	res := l.matrix.Resolve(l.bank, l.chords.Len())

	if idx, ok := res.ChordIndex(); ok && idx != l.committed {
		l.commitLocked(idx)
	}

	l.effective = l.effectiveLocked(res)
	l.graph.Apply(l.effective)

	l.ticks++
	l.publishLocked(res)
}

func (l *Loop) effectiveLocked(res routing.Resolution) patch.Params {
	eff := l.manual
	eff.ActiveChord = l.committed
	pick := func(t routing.Target, manual float64) float64 {
		if v, _, ok := res.Value(t); ok {
			return v
		}
		return manual
	}
	eff.Cutoff = pick(routing.Cutoff, l.manual.Cutoff)
	eff.Detune = pick(routing.Detune, l.manual.Detune)
	eff.Volume = pick(routing.Volume, l.manual.Volume)
	eff.ModDepth = pick(routing.ModDepth, l.manual.ModDepth)
	return eff.Clamped()
}

func (l *Loop) commitLocked(idx int) {
	idx = patch.WrapIndex(idx, l.chords.Len())
	l.committed = idx
	l.manual.ActiveChord = idx
	l.effective.ActiveChord = idx
	chord := l.chords.At(idx)
	if l.audioAvailable() {
		l.graph.PlayChord(chord)
	}
	l.logger.Debug("chord change",
		"index", idx+1,
		"offsets", []int(chord),
		"volume", l.effective.Volume,
		"cutoff", l.effective.Cutoff,
		"detune", l.effective.Detune,
		"lfoDepth", l.effective.ModDepth,
	)
}

func (l *Loop) snapshotLocked(res routing.Resolution) Snapshot {
	s := Snapshot{
		Ticks:       l.ticks,
		Manual:      l.manual,
		Effective:   l.effective,
		ActiveChord: l.committed,
		Chord:       l.chords.At(l.committed),
		NumChords:   l.chords.Len(),
		Activity:    l.matrix.Activity(),
		Status: Status{
			AudioAvailable:  l.audioAvailable(),
			CameraAvailable: l.cameraAvailable(),
			Paused:          l.paused,
		},
	}
	s.Intensity = routing.Intensity(s.Activity)
	for t := routing.Chord; t < routing.NumTargets; t++ {
		s.Driven[t] = res.Driven(t)
	}
	return s
}

func (l *Loop) publishLocked(res routing.Resolution) {
	l.last = l.snapshotLocked(res)
	if l.visual != nil {
		l.visual.Update(l.last)
	}
}

// publishStatusLocked hands the visual the last snapshot with fresh
// status flags, without resolving anything.
func (l *Loop) publishStatusLocked() {
	l.last = l.refreshedLocked()
	if l.visual != nil {
		l.visual.Update(l.last)
	}
}

func (l *Loop) refreshedLocked() Snapshot {
	s := l.last
	s.Manual = l.manual
	s.ActiveChord = l.committed
	s.Chord = l.chords.At(l.committed)
	s.NumChords = l.chords.Len()
	s.Status = Status{
		AudioAvailable:  l.audioAvailable(),
		CameraAvailable: l.cameraAvailable(),
		Paused:          l.paused,
	}
	return s
}

// Snapshot returns the state published by the latest tick, with the status
// flags refreshed.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshedLocked()
}

// SetRoute reconfigures slot id (1-based).
func (l *Loop) SetRoute(id int, slot routing.Slot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matrix.SetSlot(id, slot)
}

// SetOscillator updates channel ch (patch.ChannelA..C).
func (l *Loop) SetOscillator(ch int, cfg patch.OscillatorConfig) error {
	if ch < 0 || ch >= patch.NumChannels {
		return errors.Errorf("oscillator channel %d out of range", ch)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.oscs[ch] = cfg.Clamped()
	if l.audioAvailable() {
		if l.graph.SetOscillators(l.oscs) {
			l.logger.Debug("voice graph rebuilt", "channel", ch, "wave", cfg.Wave.String())
		}
	}
	return nil
}

// Oscillators returns the current channel layout.
func (l *Loop) Oscillators() patch.Oscillators {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.oscs
}

// SetParams replaces the manual values. ActiveChord is ignored; use
// SelectChord.
func (l *Loop) SetParams(p patch.Params) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p = p.Clamped()
	p.ActiveChord = l.committed
	l.manual = p
}

// Params returns the manual values.
func (l *Loop) Params() patch.Params {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manual
}

// Chords returns a copy of the active chord bank.
func (l *Loop) Chords() patch.Bank {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chords.Clone()
}

// SelectChord commits chord i (wrapped into the bank) and mirrors it on the
// keyboard sensor so a keyboard route agrees on the next tick.
func (l *Loop) SelectChord(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selectLocked(patch.WrapIndex(i, l.chords.Len()))
}

func (l *Loop) selectLocked(idx int) {
	l.bank.SetReading(sensor.Keyboard, sensor.KeyboardValue(idx, l.chords.Len()))
	if idx != l.committed {
		l.commitLocked(idx)
	}
}

// KeyPress handles a key from the number row or the space bar. It reports
// whether the key was used.
func (l *Loop) KeyPress(r rune) bool {
	if r == ' ' {
		l.TogglePause()
		return true
	}
	idx, ok := sensor.KeyIndex(r)
	if !ok {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx >= l.chords.Len() {
		return false
	}
	l.bank.SetReading(sensor.Keyboard, sensor.KeyboardValue(idx, l.chords.Len()))
	if l.matrix.Slot(1).Source == sensor.Keyboard && idx != l.committed {
		l.commitLocked(idx)
	}
	return true
}

// ReplaceChords swaps in a new bank. An invalid bank is rejected and the
// current one stays active. The active index is kept when it still fits,
// otherwise it resets to 0; the chord is replayed either way.
func (l *Loop) ReplaceChords(bank patch.Bank) error {
	if err := bank.Validate(); err != nil {
		return errors.Wrap(err, "replace chords")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chords = bank.Clone()
	l.committed = l.chords.ClampIndex(l.committed)
	l.manual.ActiveChord = l.committed
	l.effective.ActiveChord = l.committed
	if l.audioAvailable() {
		l.graph.PlayChord(l.chords.At(l.committed))
	}
	l.logger.Debug("chords replaced", "count", l.chords.Len(), "active", l.committed+1)
	return nil
}

// Pause stops ticking and suspends the engine so pending ramps freeze.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setPausedLocked(true)
}

// Resume undoes Pause. Missed ticks are not replayed.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setPausedLocked(false)
}

// TogglePause flips the paused state and returns the new one.
func (l *Loop) TogglePause() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setPausedLocked(!l.paused)
	return l.paused
}

func (l *Loop) setPausedLocked(paused bool) {
	if l.paused == paused {
		return
	}
	l.paused = paused
	if l.graph != nil {
		var err error
		if paused {
			err = l.graph.Engine().Suspend()
		} else {
			err = l.graph.Engine().Resume()
		}
		if err != nil {
			l.logger.Warn("engine state change failed", "paused", paused, "err", err)
		}
	}
	l.last.Status.Paused = paused
}
