// Package preset loads synth configuration and chord banks from JSON.
package preset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/patch"
	"github.com/cwbudde/algo-chords/routing"
	"github.com/cwbudde/algo-chords/sensor"
)

// Config is everything a host needs to start the synth.
type Config struct {
	Params      patch.Params
	Oscillators patch.Oscillators
	Routes      [routing.NumSlots]routing.Slot
	Chords      patch.Bank

	IRWavPath string
	// SyntheticRoom generates a room IR when IRWavPath is empty.
	SyntheticRoom bool
	RoomWet       float64
	TickHz        float64
	SampleRate    int
}

// DefaultConfig returns the startup configuration.
func DefaultConfig() *Config {
	chords, err := Builtin(DefaultChords)
	if err != nil {
		panic(err)
	}
	return &Config{
		Params:      patch.DefaultParams(),
		Oscillators: patch.DefaultOscillators(),
		Routes:      routing.DefaultSlots(),
		Chords:      chords,
		RoomWet:     0.25,
		TickHz:      60,
		SampleRate:  48000,
	}
}

// File is the JSON schema for synth presets. Every field is optional.
type File struct {
	Volume      *float64 `json:"volume"`
	Cutoff      *float64 `json:"cutoff"`
	Detune      *float64 `json:"detune"`
	ModDepth    *float64 `json:"lfo_depth"`
	ModRate     *float64 `json:"lfo_rate"`
	ActiveChord *int     `json:"active_chord"`

	Oscillators map[string]OscillatorSetting `json:"oscillators"`
	Routes      map[string]RouteSetting      `json:"routes"`

	// Chords is either an array of chords or the name of a builtin bank.
	Chords json.RawMessage `json:"chords"`

	IRWavPath     string   `json:"ir_wav_path"`
	SyntheticRoom *bool    `json:"synthetic_room"`
	RoomWet       *float64 `json:"room_wet"`
	TickHz        *float64 `json:"tick_hz"`
	SampleRate    *int     `json:"sample_rate"`
}

// OscillatorSetting is a partial channel override keyed "a", "b" or "c".
type OscillatorSetting struct {
	Wave    *string  `json:"wave"`
	Octave  *int     `json:"octave"`
	Gain    *float64 `json:"gain"`
	Enabled *bool    `json:"enabled"`
}

// RouteSetting is a partial slot override keyed "1".."3".
type RouteSetting struct {
	Source *string  `json:"source"`
	Target *string  `json:"target"`
	Gain   *float64 `json:"gain"`
	Invert *bool    `json:"invert"`
}

// LoadJSON loads a preset JSON file and applies it on top of the defaults.
func LoadJSON(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read preset")
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(err, "parse preset %s", path)
	}

	c := DefaultConfig()
	if err := ApplyFile(c, &f); err != nil {
		return nil, errors.Wrap(err, path)
	}

	if c.IRWavPath != "" && !filepath.IsAbs(c.IRWavPath) {
		base := filepath.Dir(path)
		c.IRWavPath = filepath.Clean(filepath.Join(base, c.IRWavPath))
	}
	return c, nil
}

// ApplyFile applies a parsed preset file onto an existing config.
func ApplyFile(dst *Config, f *File) error {
	if dst == nil {
		return errors.New("nil destination config")
	}
	if f == nil {
		return nil
	}

	setRange := func(name string, v *float64, lo, hi float64, out *float64) error {
		if v == nil {
			return nil
		}
		if *v < lo || *v > hi {
			return errors.Errorf("%s must be in [%g, %g]", name, lo, hi)
		}
		*out = *v
		return nil
	}
	p := &dst.Params
	if err := setRange("volume", f.Volume, patch.MinVolume, patch.MaxVolume, &p.Volume); err != nil {
		return err
	}
	if err := setRange("cutoff", f.Cutoff, patch.MinCutoff, patch.MaxCutoff, &p.Cutoff); err != nil {
		return err
	}
	if err := setRange("detune", f.Detune, patch.MinDetune, patch.MaxDetune, &p.Detune); err != nil {
		return err
	}
	if err := setRange("lfo_depth", f.ModDepth, patch.MinModDepth, patch.MaxModDepth, &p.ModDepth); err != nil {
		return err
	}
	if err := setRange("lfo_rate", f.ModRate, patch.MinModRate, patch.MaxModRate, &p.ModRate); err != nil {
		return err
	}

	if len(bytes.TrimSpace(f.Chords)) > 0 {
		bank, err := parseChordField(f.Chords)
		if err != nil {
			return err
		}
		dst.Chords = bank
	}
	if f.ActiveChord != nil {
		if *f.ActiveChord < 0 || *f.ActiveChord >= dst.Chords.Len() {
			return errors.Errorf("active_chord %d out of range (bank has %d chords)", *f.ActiveChord, dst.Chords.Len())
		}
		p.ActiveChord = *f.ActiveChord
	}

	if err := applyOscillators(&dst.Oscillators, f.Oscillators); err != nil {
		return err
	}
	if err := applyRoutes(&dst.Routes, f.Routes); err != nil {
		return err
	}

	if f.IRWavPath != "" {
		dst.IRWavPath = strings.TrimSpace(f.IRWavPath)
	}
	if f.SyntheticRoom != nil {
		dst.SyntheticRoom = *f.SyntheticRoom
	}
	if err := setRange("room_wet", f.RoomWet, 0, 1, &dst.RoomWet); err != nil {
		return err
	}
	if f.TickHz != nil {
		if *f.TickHz <= 0 || *f.TickHz > 1000 {
			return errors.New("tick_hz must be in (0, 1000]")
		}
		dst.TickHz = *f.TickHz
	}
	if f.SampleRate != nil {
		if *f.SampleRate < 8000 || *f.SampleRate > 192000 {
			return errors.Errorf("sample_rate %d out of range", *f.SampleRate)
		}
		dst.SampleRate = *f.SampleRate
	}
	return nil
}

func parseChordField(raw json.RawMessage) (patch.Bank, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return Builtin(name)
	}
	return ParseChords(string(raw))
}

var channelKeys = map[string]int{
	"a": patch.ChannelA,
	"b": patch.ChannelB,
	"c": patch.ChannelC,
}

func applyOscillators(dst *patch.Oscillators, in map[string]OscillatorSetting) error {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ch, ok := channelKeys[strings.ToLower(k)]
		if !ok {
			return errors.Errorf("invalid oscillator key %q (expected a, b or c)", k)
		}
		s := in[k]
		o := &dst[ch]
		if s.Wave != nil {
			w, err := patch.ParseWaveform(*s.Wave)
			if err != nil {
				return errors.Wrapf(err, "oscillators[%s]", k)
			}
			o.Wave = w
		}
		if s.Octave != nil {
			if *s.Octave < patch.MinOctave || *s.Octave > patch.MaxOctave {
				return errors.Errorf("oscillators[%s].octave must be in [%d, %d]", k, patch.MinOctave, patch.MaxOctave)
			}
			o.Octave = *s.Octave
		}
		if s.Gain != nil {
			if *s.Gain < 0 || *s.Gain > 1 {
				return errors.Errorf("oscillators[%s].gain must be in [0, 1]", k)
			}
			o.Gain = *s.Gain
		}
		if s.Enabled != nil {
			o.Enabled = *s.Enabled
		}
	}
	return nil
}

func applyRoutes(dst *[routing.NumSlots]routing.Slot, in map[string]RouteSetting) error {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil || id < 1 || id > routing.NumSlots {
			return errors.Errorf("invalid route key %q (expected 1..%d)", k, routing.NumSlots)
		}
		s := in[k]
		slot := &dst[id-1]
		if s.Source != nil {
			src, err := sensor.ParseID(*s.Source)
			if err != nil {
				return errors.Wrapf(err, "routes[%s]", k)
			}
			slot.Source = src
		}
		if s.Target != nil {
			tgt, err := routing.ParseTarget(*s.Target)
			if err != nil {
				return errors.Wrapf(err, "routes[%s]", k)
			}
			slot.Target = tgt
		}
		if s.Gain != nil {
			if *s.Gain < 0 {
				return errors.Errorf("routes[%s].gain must be >= 0", k)
			}
			slot.Gain = *s.Gain
		}
		if s.Invert != nil {
			slot.Invert = *s.Invert
		}
	}
	return nil
}
