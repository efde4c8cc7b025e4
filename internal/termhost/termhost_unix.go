//go:build unix

package termhost

import (
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Start switches the terminal to raw mode and begins reading. Call Stop to
// restore it.
func (h *Host) Start() error {
	return h.start(int(os.Stdin.Fd()))
}

func (h *Host) start(fd int) error {
	h.fd = fd

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return errors.Wrap(err, "set raw mode")
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return errors.Wrap(err, "set nonblocking stdin")
	}
	h.nonblockSet = true

	go h.run()
	return nil
}

func (h *Host) run() {
	defer close(h.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := syscall.Read(h.fd, buf)
		if n > 0 {
			h.onKey(Translate(buf[0]))
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop ends the reader goroutine and restores the terminal.
func (h *Host) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
