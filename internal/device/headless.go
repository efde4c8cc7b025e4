//go:build headless

package device

import "time"

// Player is a stand-in for builds without audio output.
type Player struct {
	stream  stream
	started bool
}

// Open always fails in headless builds.
func Open(sampleRate int, bufferSize time.Duration) (*Player, error) {
	return nil, ErrUnavailable
}

func (p *Player) Attach(src Source) { p.stream.attach(src) }

func (p *Player) Start() { p.started = true }

func (p *Player) Stop() { p.started = false }

func (p *Player) Close() error {
	p.started = false
	return nil
}

func (p *Player) IsStarted() bool { return p.started }
