package sensor

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// CameraSize is the side of the square the frame is reduced to before
// averaging.
const CameraSize = 32

// FrameSource delivers camera frames. NextFrame must not block: it reports
// false when no new frame is ready.
type FrameSource interface {
	NextFrame() (image.Image, bool)
}

// Camera turns frames into brightness and colour readings.
type Camera struct {
	mu     sync.Mutex
	source FrameSource
	err    error
	small  *image.RGBA
}

// NewCamera wraps a frame source. A nil source leaves the camera
// unavailable.
func NewCamera(source FrameSource) *Camera {
	c := &Camera{
		source: source,
		small:  image.NewRGBA(image.Rect(0, 0, CameraSize, CameraSize)),
	}
	if source == nil {
		c.err = ErrNoCamera
	}
	return c
}

// ErrNoCamera marks a camera without a usable source.
var ErrNoCamera = errors.New("camera unavailable")

// SetUnavailable records why the camera cannot deliver (e.g. permission
// denied). Sample becomes a no-op until a new source is attached.
func (c *Camera) SetUnavailable(err error) {
	if err == nil {
		err = ErrNoCamera
	}
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// SetSource attaches a new frame source and clears any error.
func (c *Camera) SetSource(source FrameSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
	c.err = nil
	if source == nil {
		c.err = ErrNoCamera
	}
}

// Err returns the reason the camera is unavailable, or nil.
func (c *Camera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Available reports whether the camera can deliver frames.
func (c *Camera) Available() bool {
	return c.Err() == nil
}

// Sample pulls at most one frame and feeds its mean colour into bank.
// It returns false when no frame was ready.
func (c *Camera) Sample(bank *Bank) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil || c.source == nil || bank == nil {
		return false
	}
	frame, ok := c.source.NextFrame()
	if !ok || frame == nil || frame.Bounds().Empty() {
		return false
	}
	r, g, b := c.meanColour(frame)
	bank.SetReading(CamRed, r)
	bank.SetReading(CamGreen, g)
	bank.SetReading(CamBlue, b)
	bank.SetReading(CamBrightness, (r+g+b)/3)
	return true
}

// MeanColour returns the average normalized RGB of img after reduction to
// CameraSize×CameraSize.
func MeanColour(img image.Image) (r, g, b float64) {
	c := NewCamera(nil)
	return c.meanColour(img)
}

func (c *Camera) meanColour(img image.Image) (r, g, b float64) {
	draw.ApproxBiLinear.Scale(c.small, c.small.Bounds(), img, img.Bounds(), draw.Src, nil)
	pix := c.small.Pix
	var sumR, sumG, sumB float64
	for i := 0; i+3 < len(pix); i += 4 {
		sumR += float64(pix[i])
		sumG += float64(pix[i+1])
		sumB += float64(pix[i+2])
	}
	n := float64(len(pix) / 4)
	return sumR / n / 255, sumG / n / 255, sumB / n / 255
}
