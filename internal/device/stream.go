// Package device plays engine output on the system audio device.
package device

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned when no audio output can be opened.
var ErrUnavailable = errors.New("audio device unavailable")

// Source renders interleaved stereo float32 frames; *synth.Engine is one.
type Source interface {
	ProcessTo(out []float32)
}

type sourceRef struct {
	Source
}

// stream adapts a Source to the io.Reader oto pulls float32 LE bytes from.
type stream struct {
	src atomic.Pointer[sourceRef] // lock-free for Read
	buf []float32
}

func (s *stream) attach(src Source) {
	if src == nil {
		s.src.Store(nil)
		return
	}
	s.src.Store(&sourceRef{src})
}

// Read fills p with whole stereo frames; a trailing partial frame and any
// read without a source is silence.
func (s *stream) Read(p []byte) (int, error) {
	ref := s.src.Load()
	frames := len(p) / 8
	if ref == nil || frames == 0 {
		clear(p)
		return len(p), nil
	}

	n := frames * 2
	if cap(s.buf) < n {
		s.buf = make([]float32, n)
	}
	samples := s.buf[:n]
	ref.ProcessTo(samples)

	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), n*4))
	clear(p[n*4:])
	return len(p), nil
}
