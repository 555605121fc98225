package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	focusReportingOn  = "\x1b[?1004h"
	focusReportingOff = "\x1b[?1004l"
)

// Input is a terminal switched to raw mode.
type Input struct {
	in    *os.File
	out   io.Writer
	fd    int
	state *term.State

	once sync.Once
}

// Open puts in into raw mode and turns on focus reporting, which the caller
// uses as the visibility signal.
func Open(in *os.File, out io.Writer) (*Input, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enable raw mode: %w", err)
	}
	fmt.Fprint(out, focusReportingOn)
	return &Input{in: in, out: out, fd: fd, state: state}, nil
}

// Restore leaves raw mode. It is safe to call more than once.
func (i *Input) Restore() {
	i.once.Do(func() {
		fmt.Fprint(i.out, focusReportingOff)
		_ = term.Restore(i.fd, i.state)
	})
}

// Keys streams decoded key presses until ctx ends or the read fails. The
// blocked read is abandoned, not interrupted, when ctx ends.
func (i *Input) Keys(ctx context.Context) <-chan Key {
	return ReadKeys(ctx, i.in)
}

// ReadKeys decodes keys from r until ctx ends or r fails.
func ReadKeys(ctx context.Context, r io.Reader) <-chan Key {
	ch := make(chan Key, 16)
	go func() {
		defer close(ch)
		buf := make([]byte, 1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				for _, k := range Decode(buf[:n]) {
					select {
					case ch <- k:
					case <-ctx.Done():
						return
					}
				}
			}
			if err != nil || ctx.Err() != nil {
				return
			}
		}
	}()
	return ch
}

// Width returns the terminal width of f, or fallback.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
