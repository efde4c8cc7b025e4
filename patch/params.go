// Package patch holds the instrument's data model: manual synthesis
// parameters, chord banks and oscillator settings.
package patch

// Parameter ranges.
const (
	MinVolume   = 0.0
	MaxVolume   = 0.5
	MinCutoff   = 200.0
	MaxCutoff   = 5000.0
	MinDetune   = 0.0
	MaxDetune   = 25.0
	MinModDepth = 0.0
	MaxModDepth = 100.0
	MinModRate  = 0.01
	MaxModRate  = 20.0
)

// Params holds the manually set value of every modulatable parameter.
// Routed values shadow these for a single tick and never overwrite them.
type Params struct {
	ActiveChord int

	Volume   float64 // master gain
	Cutoff   float64 // Hz
	Detune   float64 // cents, spread symmetrically over channels A and C
	ModDepth float64 // LFO depth in cents
	ModRate  float64 // LFO rate in Hz
}

// DefaultParams returns the startup parameter set.
func DefaultParams() Params {
	return Params{
		ActiveChord: 0,
		Volume:      0.2,
		Cutoff:      1000,
		Detune:      0,
		ModDepth:    5,
		ModRate:     0.2,
	}
}

// Clamped returns p with every continuous value forced into its range.
// ActiveChord is left alone; the bank owns its validity.
func (p Params) Clamped() Params {
	p.Volume = Clamp(p.Volume, MinVolume, MaxVolume)
	p.Cutoff = Clamp(p.Cutoff, MinCutoff, MaxCutoff)
	p.Detune = Clamp(p.Detune, MinDetune, MaxDetune)
	p.ModDepth = Clamp(p.ModDepth, MinModDepth, MaxModDepth)
	p.ModRate = Clamp(p.ModRate, MinModRate, MaxModRate)
	if p.ActiveChord < 0 {
		p.ActiveChord = 0
	}
	return p
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp moves from start towards end by factor.
func Lerp(start, end, factor float64) float64 {
	return start + (end-start)*factor
}
