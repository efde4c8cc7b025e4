//go:build !headless

package device

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// Player owns the oto context and a single stereo player.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	stream  stream
	started bool
	mutex   sync.Mutex // only for setup/control operations
}

// Open creates a float32 stereo output at sampleRate.
func Open(sampleRate int, bufferSize time.Duration) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	<-ready

	p := &Player{ctx: ctx}
	p.player = ctx.NewPlayer(&p.stream)
	return p, nil
}

// Attach sets the source the player pulls from; nil plays silence.
func (p *Player) Attach(src Source) {
	p.stream.attach(src)
}

// Start begins playback.
func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Stop pauses playback.
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

// Close releases the player.
func (p *Player) Close() error {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player != nil {
		err := p.player.Close()
		p.player = nil
		return errors.Wrap(err, "close player")
	}
	return nil
}

// IsStarted reports whether playback is running.
func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
