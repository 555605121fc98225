package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RequestStatus is the server-side state of a song request.
type RequestStatus string

const (
	StatusQueued   RequestStatus = "queued"
	StatusApproved RequestStatus = "approved"
	StatusPlaying  RequestStatus = "playing"
	StatusRejected RequestStatus = "rejected"
	StatusDone     RequestStatus = "done"
)

// ActiveStatuses are the statuses that make up the shared queue, in the
// order the backend expects them in the filter.
var ActiveStatuses = []RequestStatus{StatusQueued, StatusApproved, StatusPlaying}

// IsActive reports whether the request still occupies a queue slot.
func (s RequestStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

const activeListLimit = 100

// RequestPayload is the body of POST /music/requests. Exactly one of
// TrackURI, TrackID or TrackURL is set when the track could be referenced.
type RequestPayload struct {
	SessionID string `json:"sessionId"`
	TableID   string `json:"tableId,omitempty"`
	TrackURI  string `json:"trackUri,omitempty"`
	TrackID   string `json:"trackId,omitempty"`
	TrackURL  string `json:"trackUrl,omitempty"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// SongRequest is a request as stored by the backend.
type SongRequest struct {
	ID        string        `json:"_id"`
	SessionID string        `json:"sessionId"`
	TableID   string        `json:"tableId,omitempty"`
	TrackURI  string        `json:"trackUri,omitempty"`
	TrackID   string        `json:"trackId,omitempty"`
	TrackURL  string        `json:"trackUrl,omitempty"`
	Title     string        `json:"title"`
	Artist    string        `json:"artist"`
	ImageURL  string        `json:"imageUrl,omitempty"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// RequestList is one page of the active queue. Total is nil when the server
// does not report it.
type RequestList struct {
	Items []SongRequest `json:"items"`
	Total *int          `json:"total,omitempty"`
}

type createRequestResponse struct {
	Request *SongRequest `json:"request"`
}

// SearchTracks runs a catalog search through the backend and returns the
// decoded document untouched. Result envelopes vary by provider.
func (c *Client) SearchTracks(ctx context.Context, query string) (any, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("market", c.market)

	var out any
	if err := c.get(ctx, "search", "/music/search", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRequest submits a song request. The returned request is nil when the
// backend acknowledged without a document.
func (c *Client) CreateRequest(ctx context.Context, payload RequestPayload) (*SongRequest, error) {
	if strings.TrimSpace(payload.SessionID) == "" {
		return nil, fmt.Errorf("create request: %w", ErrMissingID)
	}
	var resp createRequestResponse
	if err := c.post(ctx, "create_request", "/music/requests", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Request, nil
}

// ActiveRequests lists the shared queue in server order.
func (c *Client) ActiveRequests(ctx context.Context) (*RequestList, error) {
	return c.listRequests(ctx, "active_requests", "")
}

// MyActiveRequests lists the active requests made from one session.
func (c *Client) MyActiveRequests(ctx context.Context, sessionID string) (*RequestList, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("my requests: %w", ErrMissingID)
	}
	return c.listRequests(ctx, "my_requests", sessionID)
}

func (c *Client) listRequests(ctx context.Context, op, sessionID string) (*RequestList, error) {
	q := url.Values{}
	q.Set("status", joinStatuses(ActiveStatuses))
	q.Set("sort", "createdAt:asc")
	q.Set("limit", strconv.Itoa(activeListLimit))
	if sessionID != "" {
		q.Set("sessionId", sessionID)
	}

	var list RequestList
	if err := c.get(ctx, op, "/music/requests", q, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func joinStatuses(statuses []RequestStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
