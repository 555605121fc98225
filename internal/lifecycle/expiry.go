package lifecycle

import (
	"errors"
	"net/http"

	"venue-client/internal/api"
)

// IsSessionExpired reports whether err means the server no longer accepts
// the session: 410, 403 with SESSION_EXPIRED or SESSION_INVALID, 401 with
// NO_SESSION, or a SESSION_EXPIRED code on any error, including one embedded
// as JSON in the error text.
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}

	code := api.ErrorCode(err)

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusGone:
			return true
		case http.StatusForbidden:
			if code == api.CodeSessionExpired || code == api.CodeSessionInvalid {
				return true
			}
		case http.StatusUnauthorized:
			if code == api.CodeNoSession {
				return true
			}
		}
	}

	return code == api.CodeSessionExpired
}
