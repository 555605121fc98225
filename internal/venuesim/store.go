// Package venuesim is an in-memory venue backend for local development and
// tests. It serves the same REST contract the client consumes.
package venuesim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"venue-client/internal/api"
)

var (
	ErrTableNotFound   = errors.New("table not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionClosed   = errors.New("session closed")
	ErrTrackRequired   = errors.New("track reference required")
	ErrDuplicate       = errors.New("song already requested")
	ErrRequestNotFound = errors.New("request not found")
	ErrInvalidStatus   = errors.New("invalid status")
)

// Options configures the store.
type Options struct {
	Tables          int
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Tables <= 0 {
		o.Tables = 12
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 3 * time.Minute
	}
	if o.AbsoluteTimeout <= 0 {
		o.AbsoluteTimeout = 4 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store holds tables, sessions and song requests.
type Store struct {
	opts Options

	mu       sync.Mutex
	tables   map[string]*api.Table
	sessions map[string]*api.Session
	byTable  map[string]string
	requests []*api.SongRequest
}

// NewStore seeds tables T1..Tn.
func NewStore(opts Options) *Store {
	opts = opts.withDefaults()
	s := &Store{
		opts:     opts,
		tables:   make(map[string]*api.Table),
		sessions: make(map[string]*api.Session),
		byTable:  make(map[string]string),
	}
	for i := 1; i <= opts.Tables; i++ {
		id := fmt.Sprintf("T%d", i)
		s.tables[id] = &api.Table{ID: id, Number: i, QRCode: "/table/" + id, Status: api.TableFree}
	}
	return s
}

// Table returns a copy of a table.
func (s *Store) Table(id string) (api.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return api.Table{}, ErrTableNotFound
	}
	s.reapTableLocked(id)
	return *t, nil
}

// StartSession returns the table's active session, creating one if needed.
func (s *Store) StartSession(tableID string) (api.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableID]
	if !ok {
		return api.Session{}, false, ErrTableNotFound
	}
	s.reapTableLocked(tableID)
	if id, ok := s.byTable[tableID]; ok {
		return *s.sessions[id], false, nil
	}

	now := s.opts.Now()
	sess := &api.Session{
		SessionID:      uuid.NewString(),
		TableID:        tableID,
		Active:         true,
		StartedAt:      now,
		LastActivityAt: now,
	}
	s.sessions[sess.SessionID] = sess
	s.byTable[tableID] = sess.SessionID
	t.Status = api.TableOccupied
	return *sess, true, nil
}

// ActiveSession returns the table's active session, if any.
func (s *Store) ActiveSession(tableID string) (*api.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[tableID]; !ok {
		return nil, ErrTableNotFound
	}
	s.reapTableLocked(tableID)
	id, ok := s.byTable[tableID]
	if !ok {
		return nil, nil
	}
	sess := *s.sessions[id]
	return &sess, nil
}

// Ping extends a session and returns its new idle deadline.
func (s *Store) Ping(sessionID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.liveLocked(sessionID)
	if err != nil {
		return time.Time{}, err
	}
	sess.LastActivityAt = s.opts.Now()
	return sess.LastActivityAt.Add(s.opts.IdleTimeout), nil
}

// Close ends a session. Closing an ended session returns it unchanged.
func (s *Store) Close(sessionID string) (api.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return api.Session{}, ErrSessionNotFound
	}
	s.reapLocked(sess)
	if sess.Active {
		s.endLocked(sess, api.ClosedManual)
	}
	return *sess, nil
}

// CreateRequest queues a song for an active session.
func (s *Store) CreateRequest(p api.RequestPayload) (api.SongRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.liveLocked(p.SessionID)
	if err != nil {
		return api.SongRequest{}, err
	}
	if p.TrackURI == "" && p.TrackID == "" && p.TrackURL == "" {
		return api.SongRequest{}, ErrTrackRequired
	}
	for _, r := range s.requests {
		if r.SessionID == sess.SessionID && r.Status.IsActive() && sameTrack(r, p) {
			return api.SongRequest{}, ErrDuplicate
		}
	}

	now := s.opts.Now()
	sess.LastActivityAt = now
	r := &api.SongRequest{
		ID:        uuid.NewString(),
		SessionID: sess.SessionID,
		TableID:   sess.TableID,
		TrackURI:  p.TrackURI,
		TrackID:   p.TrackID,
		TrackURL:  p.TrackURL,
		Title:     p.Title,
		Artist:    p.Artist,
		ImageURL:  p.ImageURL,
		Status:    api.StatusQueued,
		CreatedAt: now,
	}
	s.requests = append(s.requests, r)
	return *r, nil
}

func sameTrack(r *api.SongRequest, p api.RequestPayload) bool {
	return (p.TrackURI != "" && r.TrackURI == p.TrackURI) ||
		(p.TrackID != "" && r.TrackID == p.TrackID) ||
		(p.TrackURL != "" && r.TrackURL == p.TrackURL)
}

// ListFilter selects requests.
type ListFilter struct {
	Statuses  []api.RequestStatus
	SessionID string
	Limit     int
}

// List returns matching requests oldest first, and the match count before
// the limit is applied.
func (s *Store) List(f ListFilter) ([]api.SongRequest, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []api.SongRequest
	for _, r := range s.requests {
		if f.SessionID != "" && r.SessionID != f.SessionID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, r.Status) {
			continue
		}
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	total := len(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total
}

func hasStatus(list []api.RequestStatus, s api.RequestStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SetStatus moves a request along, as the venue's staff would.
func (s *Store) SetStatus(requestID string, status api.RequestStatus) (api.SongRequest, error) {
	switch status {
	case api.StatusQueued, api.StatusApproved, api.StatusPlaying, api.StatusRejected, api.StatusDone:
	default:
		return api.SongRequest{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.ID == requestID {
			r.Status = status
			return *r, nil
		}
	}
	return api.SongRequest{}, ErrRequestNotFound
}

// ParseStatuses splits a comma separated status filter.
func ParseStatuses(raw string) []api.RequestStatus {
	var out []api.RequestStatus
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, api.RequestStatus(part))
		}
	}
	return out
}

func (s *Store) liveLocked(sessionID string) (*api.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.reapLocked(sess)
	if sess.Active {
		return sess, nil
	}
	if sess.ClosedReason == api.ClosedManual {
		return nil, ErrSessionClosed
	}
	return nil, ErrSessionExpired
}

func (s *Store) reapTableLocked(tableID string) {
	if id, ok := s.byTable[tableID]; ok {
		s.reapLocked(s.sessions[id])
	}
}

func (s *Store) reapLocked(sess *api.Session) {
	if !sess.Active {
		return
	}
	now := s.opts.Now()
	switch {
	case now.Sub(sess.StartedAt) >= s.opts.AbsoluteTimeout:
		s.endLocked(sess, api.ClosedAbsolute)
	case now.Sub(sess.LastActivityAt) >= s.opts.IdleTimeout:
		s.endLocked(sess, api.ClosedIdle)
	}
}

func (s *Store) endLocked(sess *api.Session, reason api.ClosedReason) {
	now := s.opts.Now()
	sess.Active = false
	sess.ClosedAt = &now
	sess.ClosedReason = reason
	if s.byTable[sess.TableID] == sess.SessionID {
		delete(s.byTable, sess.TableID)
		if t, ok := s.tables[sess.TableID]; ok {
			t.Status = api.TableFree
		}
	}
}
