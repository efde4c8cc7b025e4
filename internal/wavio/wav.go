// Package wavio reads and writes the WAV files used for rendered output and
// room impulse responses.
package wavio

import (
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/pkg/errors"
)

// ReadStereo decodes a mono or stereo WAV. Mono files are duplicated to both
// channels; channels beyond the second are ignored.
func ReadStereo(path string) (left, right []float32, sampleRate int, err error) {
	data, ch, rate, err := decode(path)
	if err != nil {
		return nil, nil, 0, err
	}
	frames := len(data) / ch
	if frames == 0 {
		return nil, nil, 0, errors.Errorf("empty wav data: %s", path)
	}
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := range frames {
		left[i] = data[i*ch]
		if ch > 1 {
			right[i] = data[i*ch+1]
		} else {
			right[i] = left[i]
		}
	}
	return left, right, rate, nil
}

// ReadMono decodes a WAV and averages its channels.
func ReadMono(path string) ([]float64, int, error) {
	data, ch, rate, err := decode(path)
	if err != nil {
		return nil, 0, err
	}
	frames := len(data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, rate, nil
}

// decode returns interleaved samples, the channel count and the sample rate.
func decode(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "open wav")
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "decode %s", path)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, 0, errors.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, 0, errors.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	return buf.Data, buf.Format.NumChannels, buf.Format.SampleRate, nil
}

// Resample converts between sample rates, returning in unchanged when the
// rates already match.
func Resample(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, errors.Wrap(err, "resampler")
	}
	return r.Process(in), nil
}

// Resample32 is Resample for float32 buffers.
func Resample32(in []float32, fromRate int, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64, err := Resample(in64, fromRate, toRate)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// WriteStereo writes interleaved stereo samples as 16-bit PCM.
func WriteStereo(path string, samples []float32, sampleRate int) error {
	return write(path, samples, sampleRate, 2)
}

// WriteMono writes mono samples as 16-bit PCM.
func WriteMono(path string, samples []float32, sampleRate int) error {
	return write(path, samples, sampleRate, 1)
}

func write(path string, samples []float32, sampleRate, channels int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create wav")
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrap(enc.Close(), "finalize wav")
}

// StereoToMono averages an interleaved stereo buffer.
func StereoToMono(st []float32) []float64 {
	if len(st) < 2 {
		return nil
	}
	n := len(st) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(st[i*2]) + float64(st[i*2+1]))
	}
	return out
}

// RMS of an interleaved buffer.
func RMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
