package sensor

// Conversions from raw host events to normalized readings.

// CursorPosition maps a pointer position inside a w×h surface. Y is flipped
// so the top edge reads 1.
func CursorPosition(x, y, w, h float64) (cx, cy float64) {
	if w <= 0 || h <= 0 {
		return 0.5, 0.5
	}
	return clamp01(x / w), 1 - clamp01(y/h)
}

// TiltFromBeta maps a front-back device tilt in degrees, limited to ±45°.
func TiltFromBeta(beta float64) float64 {
	if beta < -45 {
		beta = -45
	}
	if beta > 45 {
		beta = 45
	}
	return (beta + 45) / 90
}

// MotionFromAccel maps x acceleration including gravity (m/s²).
func MotionFromAccel(x float64) float64 {
	return clamp01((x + 10) / 20)
}

// KeyboardValue is the reading that selects chord index within a bank of
// numChords when routed to the chord target with unit gain.
func KeyboardValue(index, numChords int) float64 {
	if numChords <= 0 {
		return 0
	}
	return (float64(index) + 0.5) / float64(numChords)
}

var keyMap = map[rune]int{
	'1': 0, '2': 1, '3': 2, '4': 3, '5': 4, '6': 5,
	'7': 6, '8': 7, '9': 8, '0': 9, '-': 10, '=': 11,
}

// KeyIndex maps the number row to chord indexes 0..11.
func KeyIndex(r rune) (int, bool) {
	i, ok := keyMap[r]
	return i, ok
}

// Producer adapts a single source to a writer callback, e.g. for hosts that
// deliver one value per event.
type Producer struct {
	Bank *Bank
	ID   ID
}

// Set writes v to the producer's source.
func (p Producer) Set(v float64) {
	if p.Bank == nil {
		return
	}
	p.Bank.SetReading(p.ID, v)
}
