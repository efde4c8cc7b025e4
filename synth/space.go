package synth

import (
	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-chords/internal/wavio"
)

// Room convolves the mono voice mix with a stereo impulse response.
type Room struct {
	sampleRate int
	partSize   int
	irLen      int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	block    []float32
	leftOut  []float32
	rightOut []float32

	// pending input and output carried between calls so arbitrary block
	// sizes stream through the fixed partition size
	inFill  int
	outL    []float32
	outR    []float32
	outRead int
}

// NewRoom creates a room with an identity impulse response.
func NewRoom(sampleRate int) *Room {
	r := &Room{
		sampleRate: sampleRate,
		partSize:   128,
	}
	_ = r.SetIR([]float32{1.0}, []float32{1.0})
	return r
}

// LoadRoom creates a room from a mono or stereo WAV impulse response,
// resampled to sampleRate when needed.
func LoadRoom(path string, sampleRate int) (*Room, error) {
	left, right, rate, err := wavio.ReadStereo(path)
	if err != nil {
		return nil, errors.Wrap(err, "room ir")
	}
	if left, err = wavio.Resample32(left, rate, sampleRate); err != nil {
		return nil, err
	}
	if right, err = wavio.Resample32(right, rate, sampleRate); err != nil {
		return nil, err
	}
	r := &Room{sampleRate: sampleRate, partSize: 128}
	if err := r.SetIR(left, right); err != nil {
		return nil, err
	}
	return r, nil
}

// SetIR configures left/right impulse responses.
func (r *Room) SetIR(leftIR []float32, rightIR []float32) error {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	leftOLA, err := dspconv.NewStreamingOverlapAdd32(leftIR, r.partSize)
	if err != nil {
		return errors.Wrap(err, "left convolver")
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(rightIR, r.partSize)
	if err != nil {
		return errors.Wrap(err, "right convolver")
	}
	r.leftOLA = leftOLA
	r.rightOLA = rightOLA
	r.irLen = max(len(leftIR), len(rightIR), 1)

	r.block = make([]float32, r.partSize)
	r.leftOut = make([]float32, r.partSize)
	r.rightOut = make([]float32, r.partSize)
	r.outL = make([]float32, r.partSize)
	r.outR = make([]float32, r.partSize)
	r.Reset()
	return nil
}

// Len returns the impulse response length in samples.
func (r *Room) Len() int {
	return r.irLen
}

// Reset clears convolver history and overlap buffers.
func (r *Room) Reset() {
	if r.leftOLA != nil {
		r.leftOLA.Reset()
	}
	if r.rightOLA != nil {
		r.rightOLA.Reset()
	}
	clear(r.block)
	clear(r.outL)
	clear(r.outR)
	r.inFill = 0
	// the first partition of output is latency
	r.outRead = 0
}

// ProcessTo convolves mono input into interleaved stereo. One partition of
// latency is introduced; the output carries dry*in plus wet*convolved.
func (r *Room) ProcessTo(out []float32, in []float32, dry, wet float32) {
	for i, x := range in {
		l := r.outL[r.outRead]
		rr := r.outR[r.outRead]
		r.outRead++

		r.block[r.inFill] = x
		r.inFill++
		if r.inFill == r.partSize {
			r.flush()
		}

		out[2*i] = dry*x + wet*l
		out[2*i+1] = dry*x + wet*rr
	}
}

func (r *Room) flush() {
	errL := r.leftOLA.ProcessBlockTo(r.leftOut, r.block)
	errR := r.rightOLA.ProcessBlockTo(r.rightOut, r.block)
	if errL != nil || errR != nil {
		// pass through for this block
		copy(r.outL, r.block)
		copy(r.outR, r.block)
	} else {
		copy(r.outL, r.leftOut)
		copy(r.outR, r.rightOut)
	}
	r.inFill = 0
	r.outRead = 0
}
