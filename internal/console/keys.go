// Package console reads keys from a raw-mode terminal and helps render lines.
package console

import "unicode/utf8"

// KeyKind classifies a key press.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyEscape
	KeyClearLine
	KeyInterrupt
	KeyQuit
	KeySuspend
	KeyFocusIn
	KeyFocusOut
)

// Key is one decoded key press.
type Key struct {
	Kind KeyKind
	Rune rune
}

const (
	ctrlC     = 0x03
	ctrlU     = 0x15
	ctrlZ     = 0x1a
	ctrlBack  = 0x1c // Ctrl+\
	esc       = 0x1b
	del       = 0x7f
	backspace = 0x08
)

// Decode turns one read from a raw terminal into key presses. Focus
// reporting sequences (ESC [ I, ESC [ O) become KeyFocusIn and KeyFocusOut.
// Unknown escape sequences are dropped.
func Decode(buf []byte) []Key {
	var keys []Key
	for i := 0; i < len(buf); {
		b := buf[i]
		switch {
		case b == esc:
			k, n := decodeEscape(buf[i:])
			if k != nil {
				keys = append(keys, *k)
			}
			i += n
			continue
		case b == '\r' || b == '\n':
			keys = append(keys, Key{Kind: KeyEnter})
		case b == del || b == backspace:
			keys = append(keys, Key{Kind: KeyBackspace})
		case b == '\t':
			keys = append(keys, Key{Kind: KeyTab})
		case b == ctrlC:
			keys = append(keys, Key{Kind: KeyInterrupt})
		case b == ctrlBack:
			keys = append(keys, Key{Kind: KeyQuit})
		case b == ctrlU:
			keys = append(keys, Key{Kind: KeyClearLine})
		case b == ctrlZ:
			keys = append(keys, Key{Kind: KeySuspend})
		case b < 0x20:
			// other control bytes
		default:
			r, size := utf8.DecodeRune(buf[i:])
			if r != utf8.RuneError || size > 1 {
				keys = append(keys, Key{Kind: KeyRune, Rune: r})
			}
			i += size
			continue
		}
		i++
	}
	return keys
}

func decodeEscape(buf []byte) (*Key, int) {
	if len(buf) == 1 {
		return &Key{Kind: KeyEscape}, 1
	}
	if buf[1] != '[' && buf[1] != 'O' {
		return &Key{Kind: KeyEscape}, 1
	}
	if len(buf) < 3 {
		return nil, len(buf)
	}

	// CSI: parameters and intermediates up to a final byte in 0x40..0x7e.
	end := 2
	for end < len(buf) && (buf[end] < 0x40 || buf[end] > 0x7e) {
		end++
	}
	if end == len(buf) {
		return nil, len(buf)
	}

	n := end + 1
	if end != 2 {
		return nil, n
	}
	switch buf[end] {
	case 'A':
		return &Key{Kind: KeyUp}, n
	case 'B':
		return &Key{Kind: KeyDown}, n
	case 'I':
		return &Key{Kind: KeyFocusIn}, n
	case 'O':
		if buf[1] == '[' {
			return &Key{Kind: KeyFocusOut}, n
		}
	}
	return nil, n
}
