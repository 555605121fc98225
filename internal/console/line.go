package console

import (
	"strings"
	"unicode/utf8"
)

// LineEditor is a single-line text buffer driven by keys.
type LineEditor struct {
	buf []rune
}

// Apply edits the line and reports whether it changed.
func (l *LineEditor) Apply(k Key) bool {
	switch k.Kind {
	case KeyRune:
		l.buf = append(l.buf, k.Rune)
		return true
	case KeyBackspace:
		if len(l.buf) == 0 {
			return false
		}
		l.buf = l.buf[:len(l.buf)-1]
		return true
	case KeyClearLine:
		if len(l.buf) == 0 {
			return false
		}
		l.buf = l.buf[:0]
		return true
	}
	return false
}

// Set replaces the line.
func (l *LineEditor) Set(s string) {
	l.buf = []rune(s)
}

func (l *LineEditor) String() string {
	return string(l.buf)
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// Pad right-pads s with spaces to width runes.
func Pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
