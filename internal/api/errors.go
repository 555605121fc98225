package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrTransport          = errors.New("request failed")
	ErrUnexpectedResponse = errors.New("unexpected server response")
	ErrMissingID          = errors.New("missing id")
	ErrTableNotFound      = errors.New("table not found")
)

// Backend error codes that end a session.
const (
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeSessionInvalid = "SESSION_INVALID"
	CodeNoSession      = "NO_SESSION"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status int
	Code   string
	Msg    string
	Body   string
}

func newError(status int, body []byte) *Error {
	e := &Error{
		Status: status,
		Body:   strings.TrimSpace(string(body)),
	}
	if p, ok := ParseErrorPayload(e.Body); ok {
		e.Code = p.Code
		e.Msg = p.Msg
	}
	return e
}

// Error returns the raw response body when there is one, so callers that only
// see the message can still recover the {code,msg} document from it.
func (e *Error) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return e.StatusText()
}

// StatusText renders "Error 410: Gone".
func (e *Error) StatusText() string {
	return fmt.Sprintf("Error %d: %s", e.Status, http.StatusText(e.Status))
}

// ErrorPayload is the {code,msg} document the backend sends on failure.
type ErrorPayload struct {
	Code string
	Msg  string
}

// ParseErrorPayload extracts {code,msg} from text that is, or embeds, a JSON
// object. msg may also arrive as "message" or "error".
func ParseErrorPayload(text string) (ErrorPayload, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrorPayload{}, false
	}

	doc, ok := decodeObject(text)
	if !ok {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return ErrorPayload{}, false
		}
		if doc, ok = decodeObject(text[start : end+1]); !ok {
			return ErrorPayload{}, false
		}
	}

	p := ErrorPayload{Code: scalarString(doc["code"])}
	for _, key := range []string{"msg", "message", "error"} {
		if s := scalarString(doc[key]); s != "" {
			p.Msg = s
			break
		}
	}
	return p, p.Code != "" || p.Msg != ""
}

func decodeObject(text string) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		return nil, false
	}
	return doc, true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// NormalizeCode upper-cases a code and folds spaces and dashes into
// underscores, so "session expired" and "SESSION-EXPIRED" compare equal.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(code)
}

// ErrorCode returns the normalized backend code carried by err, looking at
// the structured response first and then at JSON embedded in the message.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return NormalizeCode(apiErr.Code)
	}
	if p, ok := ParseErrorPayload(err.Error()); ok {
		return NormalizeCode(p.Code)
	}
	return ""
}

// HumanMessage picks the best user-facing text for err. Raw transport
// failures and non-text bodies fall back to fallback.
func HumanMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Msg != "" {
			return apiErr.Msg
		}
		if isPlainText(apiErr.Body) {
			return apiErr.Body
		}
		return fallback
	}

	if errors.Is(err, ErrTransport) {
		return "Could not reach the venue server. Check your connection and try again."
	}
	if p, ok := ParseErrorPayload(err.Error()); ok && p.Msg != "" {
		return p.Msg
	}
	return fallback
}

func isPlainText(body string) bool {
	if body == "" || len(body) > 200 {
		return false
	}
	if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") || strings.HasPrefix(body, "<") {
		return false
	}
	return !strings.ContainsAny(body, "\n\r")
}
