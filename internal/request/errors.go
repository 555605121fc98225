package request

import "errors"

var (
	ErrNoSession          = errors.New("no active session")
	ErrUnexpectedResponse = errors.New("unexpected server response")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionClosed      = errors.New("session closed")
)
