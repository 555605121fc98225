package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorPayload(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ErrorPayload
		ok   bool
	}{
		{"plain json", `{"ok":false,"code":"SESSION_EXPIRED","msg":"gone"}`, ErrorPayload{Code: "SESSION_EXPIRED", Msg: "gone"}, true},
		{"message key", `{"message":"bad track"}`, ErrorPayload{Msg: "bad track"}, true},
		{"error key", `{"error":"nope"}`, ErrorPayload{Msg: "nope"}, true},
		{"numeric code", `{"code":409,"msg":"dup"}`, ErrorPayload{Code: "409", Msg: "dup"}, true},
		{"embedded", `request failed: {"code":"NO_SESSION","msg":"login"} (401)`, ErrorPayload{Code: "NO_SESSION", Msg: "login"}, true},
		{"not json", "Internal Server Error", ErrorPayload{}, false},
		{"empty object", `{}`, ErrorPayload{}, false},
		{"empty", "", ErrorPayload{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseErrorPayload(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SESSION_EXPIRED", NormalizeCode("session expired"))
	assert.Equal(t, "SESSION_EXPIRED", NormalizeCode(" Session-Expired "))
	assert.Equal(t, "NO_SESSION", NormalizeCode("NO_SESSION"))
}

func TestErrorCode(t *testing.T) {
	structured := newError(403, []byte(`{"code":"session-invalid"}`))
	assert.Equal(t, "SESSION_INVALID", ErrorCode(structured))
	assert.Equal(t, "SESSION_INVALID", ErrorCode(fmt.Errorf("ping: %w", structured)))

	embedded := errors.New(`upstream said {"code":"session expired"}`)
	assert.Equal(t, "SESSION_EXPIRED", ErrorCode(embedded))

	assert.Empty(t, ErrorCode(errors.New("boom")))
	assert.Empty(t, ErrorCode(nil))
}

func TestErrorText(t *testing.T) {
	withBody := newError(500, []byte("database down"))
	assert.Equal(t, "database down", withBody.Error())

	empty := newError(502, nil)
	assert.Equal(t, "Error 502: Bad Gateway", empty.Error())
}

func TestHumanMessage(t *testing.T) {
	const fallback = "Could not send your request."

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api msg", newError(400, []byte(`{"code":"BAD","msg":"Track not allowed"}`)), "Track not allowed"},
		{"plain body", newError(500, []byte("database down")), "database down"},
		{"html body", newError(502, []byte("<html>bad gateway</html>")), fallback},
		{"json without msg", newError(500, []byte(`{"code":"X"}`)), fallback},
		{"transport", fmt.Errorf("%w: POST /x: dial tcp", ErrTransport), "Could not reach the venue server. Check your connection and try again."},
		{"embedded json", errors.New(`failed: {"msg":"Queue is full"}`), "Queue is full"},
		{"other", errors.New("weird"), fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanMessage(tt.err, fallback))
		})
	}
}
