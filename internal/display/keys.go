package display

import (
	"bufio"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

const ctrlC = 0x03

// KeyReader watches an input stream for the quit key (q, Q or Ctrl-C).
// Reads happen on their own goroutine so QuitRequested never blocks.
type KeyReader struct {
	quit    atomic.Bool
	restore func() error
}

// NewKeyReader puts in into raw mode when it is a terminal, so single
// keystrokes arrive without Enter, and starts watching it.
func NewKeyReader(in *os.File) (*KeyReader, error) {
	restore := func() error { return nil }
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		restore = func() error { return term.Restore(fd, state) }
	}
	k := newKeyReader(in)
	k.restore = restore
	return k, nil
}

func newKeyReader(r io.Reader) *KeyReader {
	k := &KeyReader{restore: func() error { return nil }}
	go k.watch(bufio.NewReader(r))
	return k
}

func (k *KeyReader) watch(r io.ByteReader) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case 'q', 'Q', ctrlC:
			k.quit.Store(true)
			return
		}
	}
}

// QuitRequested reports whether the quit key has been pressed.
func (k *KeyReader) QuitRequested() bool {
	return k.quit.Load()
}

// Close restores the terminal. The reader goroutine is left to end with
// the process since a pending read cannot be interrupted.
func (k *KeyReader) Close() error {
	return k.restore()
}
