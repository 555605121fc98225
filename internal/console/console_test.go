package console

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Key
	}{
		{"text", "mo", []Key{{Kind: KeyRune, Rune: 'm'}, {Kind: KeyRune, Rune: 'o'}}},
		{"utf8", "ñ", []Key{{Kind: KeyRune, Rune: 'ñ'}}},
		{"enter", "\r", []Key{{Kind: KeyEnter}}},
		{"backspace", "\x7f", []Key{{Kind: KeyBackspace}}},
		{"ctrl c", "\x03", []Key{{Kind: KeyInterrupt}}},
		{"ctrl backslash", "\x1c", []Key{{Kind: KeyQuit}}},
		{"ctrl u", "\x15", []Key{{Kind: KeyClearLine}}},
		{"arrows", "\x1b[A\x1b[B", []Key{{Kind: KeyUp}, {Kind: KeyDown}}},
		{"application arrows", "\x1bOA", []Key{{Kind: KeyUp}}},
		{"focus", "\x1b[O\x1b[I", []Key{{Kind: KeyFocusOut}, {Kind: KeyFocusIn}}},
		{"lone escape", "\x1b", []Key{{Kind: KeyEscape}}},
		{"unknown csi dropped", "\x1b[1;5Cx", []Key{{Kind: KeyRune, Rune: 'x'}}},
		{"other control dropped", "\x01a", []Key{{Kind: KeyRune, Rune: 'a'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode([]byte(tt.in)))
		})
	}
}

func TestLineEditor(t *testing.T) {
	var l LineEditor
	for _, k := range Decode([]byte("moonx\x7f")) {
		l.Apply(k)
	}
	assert.Equal(t, "moon", l.String())

	assert.False(t, l.Apply(Key{Kind: KeyEnter}))
	assert.True(t, l.Apply(Key{Kind: KeyClearLine}))
	assert.Equal(t, "", l.String())
	assert.False(t, l.Apply(Key{Kind: KeyBackspace}))
}

func TestReadKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Key
	for k := range ReadKeys(ctx, strings.NewReader("hi\r")) {
		got = append(got, k)
	}
	assert.Equal(t, []Key{{Kind: KeyRune, Rune: 'h'}, {Kind: KeyRune, Rune: 'i'}, {Kind: KeyEnter}}, got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Moon", Truncate("Moon", 10))
	assert.Equal(t, "Moon Ri…", Truncate("Moon River", 8))
	assert.Equal(t, "…", Truncate("Moon", 1))
	assert.Equal(t, "", Truncate("Moon", 0))
	assert.Equal(t, "ab  ", Pad("ab", 4))
}
