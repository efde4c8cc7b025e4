package control

import (
	"context"
	"sync"
	"time"
)

// DefaultTickHz is the host tick rate when none is configured.
const DefaultTickHz = 60

// Ticker is anything that runs one control pass per call.
type Ticker interface {
	Tick()
}

// Driver calls Tick on a fixed interval from a single goroutine, so ticks
// never overlap. Ticks missed while a Tick runs long are dropped.
type Driver struct {
	target   Ticker
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver creates a stopped driver ticking target at hz.
func NewDriver(target Ticker, hz float64) *Driver {
	if hz <= 0 {
		hz = DefaultTickHz
	}
	return &Driver{
		target:   target,
		interval: time.Duration(float64(time.Second) / hz),
	}
}

// Interval returns the tick period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Start begins ticking until ctx is cancelled or Stop is called. Starting a
// running driver does nothing.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		select {
		case <-d.done:
			// parent context ended; allow a restart
			d.cancel()
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done
	go d.run(ctx, done)
}

func (d *Driver) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.target.Tick()
		}
	}
}

// Stop halts ticking and waits for an in-flight Tick to finish. The driver
// can be started again afterwards.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the driver is ticking.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}
