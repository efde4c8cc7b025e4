// Package termhost reads raw keystrokes from the controlling terminal.
package termhost

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// Host puts stdin into raw non-blocking mode and hands every key to a
// callback from its own goroutine.
type Host struct {
	onKey   func(rune)
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

// New creates a host that calls onKey for each key read.
func New(onKey func(rune)) *Host {
	return &Host{
		onKey:  onKey,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// IsTerminal reports whether stdin is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ctrl-C arrives as a plain byte in raw mode.
const (
	KeyInterrupt rune = 0x03
	KeyEscape    rune = 0x1b
)

// Translate maps a raw byte to the key the rest of the program sees.
func Translate(b byte) rune {
	switch b {
	case '\r':
		return '\n'
	case 0x7f:
		return 0x08
	}
	return rune(b)
}
