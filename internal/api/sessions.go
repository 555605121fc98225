package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClosedReason says why a session ended.
type ClosedReason string

const (
	ClosedManual   ClosedReason = "manual"
	ClosedIdle     ClosedReason = "idle"
	ClosedAbsolute ClosedReason = "absolute"
)

// Session is an ephemeral table-bound session.
type Session struct {
	SessionID      string       `json:"sessionId"`
	TableID        string       `json:"tableId"`
	Active         bool         `json:"active"`
	StartedAt      time.Time    `json:"startedAt"`
	LastActivityAt time.Time    `json:"lastActivityAt"`
	ClosedAt       *time.Time   `json:"closedAt,omitempty"`
	ClosedReason   ClosedReason `json:"closedReason,omitempty"`
}

// UnmarshalJSON accepts documents keyed by _id as well as sessionId.
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	var aux struct {
		plain
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Session(aux.plain)
	if s.SessionID == "" {
		s.SessionID = aux.ID
	}
	return nil
}

type sessionResponse struct {
	OK      bool     `json:"ok"`
	Session *Session `json:"session"`
}

// PingResponse is the heartbeat acknowledgement. Until is the server's idle
// deadline for the session.
type PingResponse struct {
	OK    bool       `json:"ok"`
	Until *time.Time `json:"until,omitempty"`
}

type startSessionRequest struct {
	TableID string `json:"tableId"`
}

// StartSession opens (or returns the already active) session for a table.
// Older backends only expose POST /sessions, which is tried when
// /sessions/start is missing.
func (c *Client) StartSession(ctx context.Context, tableID string) (*Session, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, fmt.Errorf("start session: %w", ErrMissingID)
	}

	body := startSessionRequest{TableID: tableID}
	var resp sessionResponse
	err := c.post(ctx, "start_session", "/sessions/start", body, &resp)
	if isStatus(err, http.StatusNotFound) && ErrorCode(err) == "" {
		resp = sessionResponse{}
		err = c.post(ctx, "start_session", "/sessions", body, &resp)
	}
	if err != nil {
		return nil, err
	}
	if resp.Session == nil || resp.Session.SessionID == "" {
		return nil, fmt.Errorf("%w: start session returned no session", ErrUnexpectedResponse)
	}
	if resp.Session.TableID == "" {
		resp.Session.TableID = tableID
	}
	return resp.Session, nil
}

// ActiveSession returns the table's current session, or nil when it has none.
func (c *Client) ActiveSession(ctx context.Context, tableID string) (*Session, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, fmt.Errorf("active session: %w", ErrMissingID)
	}

	var resp sessionResponse
	err := c.get(ctx, "active_session", "/sessions/by-table/"+url.PathEscape(tableID), nil, &resp)
	if isStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Session == nil || resp.Session.SessionID == "" || !resp.Session.Active {
		return nil, nil
	}
	return resp.Session, nil
}

// Ping extends the session's idle deadline.
func (c *Client) Ping(ctx context.Context, sessionID string) (*PingResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("ping: %w", ErrMissingID)
	}
	var resp PingResponse
	if err := c.post(ctx, "ping", "/sessions/"+url.PathEscape(sessionID)+"/ping", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CloseSession ends the session. The returned session is nil when the
// backend answers without one.
func (c *Client) CloseSession(ctx context.Context, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("close session: %w", ErrMissingID)
	}
	var resp sessionResponse
	if err := c.post(ctx, "close_session", ClosePath(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// ClosePath is the close endpoint relative to the API base.
func ClosePath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID) + "/close"
}

func isStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
