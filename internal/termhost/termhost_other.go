//go:build !unix

package termhost

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Start switches the console to raw mode and reads it with blocking reads.
// Call Stop to restore it.
func (h *Host) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return errors.Wrap(err, "set raw mode")
	}
	h.oldTermState = oldState

	go h.run()
	return nil
}

func (h *Host) run() {
	defer close(h.done)
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		select {
		case <-h.stopCh:
			return
		default:
		}
		if n > 0 {
			h.onKey(Translate(buf[0]))
		}
		if err != nil {
			return
		}
	}
}

// Stop restores the console. A read already blocked in the reader goroutine
// is abandoned; its key is dropped.
func (h *Host) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
