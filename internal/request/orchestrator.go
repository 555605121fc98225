// Package request submits song requests and reports where they landed in
// the queue.
package request

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"venue-client/internal/api"
	"venue-client/internal/identity"
	"venue-client/internal/lifecycle"
	"venue-client/internal/metrics"
	"venue-client/internal/notify"
	"venue-client/internal/queue"
	"venue-client/internal/track"
)

// User-facing texts.
const (
	NoSessionMessage   = "No active session. Ask the staff to open your table, then scan its QR code."
	ClosedMessage      = "Your table session has ended."
	UnexpectedMessage  = "Unexpected server response. Please try again."
	FailureMessage     = "Could not send your request. Please try again."
	defaultReturnRoute = "/"
)

// Creator posts song requests.
type Creator interface {
	CreateRequest(ctx context.Context, payload api.RequestPayload) (*api.SongRequest, error)
}

// Positioner ranks a request in the active queue.
type Positioner interface {
	Position(ctx context.Context, requestID string) (queue.Position, error)
}

// Session is the lifecycle the submission runs under.
type Session interface {
	HandleError(err error) bool
	State() lifecycle.State
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Show(n notify.Notice)
}

// Clearer resets the search view after a successful request.
type Clearer interface {
	Clear()
}

// Navigator moves the user back after a request.
type Navigator interface {
	Navigate(route string)
}

// Options are the optional collaborators.
type Options struct {
	Session     Session
	Notifier    Notifier
	Search      Clearer
	Navigator   Navigator
	ReturnAfter time.Duration
	ReturnRoute string
}

// Outcome is a successful submission.
type Outcome struct {
	Request  *api.SongRequest
	Payload  api.RequestPayload
	Position queue.Position
	Message  string
}

// Orchestrator runs submit -> position -> confirm.
type Orchestrator struct {
	creator    Creator
	positioner Positioner
	opts       Options

	mu          sync.Mutex
	returnTimer *time.Timer
	alive       atomic.Bool
}

// New builds an orchestrator.
func New(creator Creator, positioner Positioner, opts Options) *Orchestrator {
	if opts.ReturnRoute == "" {
		opts.ReturnRoute = defaultReturnRoute
	}
	o := &Orchestrator{creator: creator, positioner: positioner, opts: opts}
	o.alive.Store(true)
	return o
}

// Submit requests t for the session in id.
func (o *Orchestrator) Submit(ctx context.Context, t track.Track, id identity.Identity) (*Outcome, error) {
	if o.opts.Session != nil && o.opts.Session.State().Terminal() {
		o.show(notify.Error(ClosedMessage))
		metrics.RecordSubmission("closed")
		return nil, ErrSessionClosed
	}
	if !id.HasSession() {
		o.show(notify.Error(NoSessionMessage))
		metrics.RecordSubmission("no_session")
		return nil, ErrNoSession
	}

	payload := track.BuildPayload(t, id)
	logger := log.With().Str("session_id", id.SessionID).Str("title", payload.Title).Logger()

	created, err := o.creator.CreateRequest(ctx, payload)
	if err != nil {
		if o.expired(err) {
			metrics.RecordSubmission("expired")
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		if ended := o.ended(); ended != nil {
			metrics.RecordSubmission("closed")
			return nil, ended
		}
		o.show(notify.Error(api.HumanMessage(err, FailureMessage)))
		metrics.RecordSubmission("error")
		logger.Warn().Err(err).Msg("song request failed")
		return nil, fmt.Errorf("submit request: %w", err)
	}
	if ended := o.ended(); ended != nil {
		metrics.RecordSubmission("closed")
		logger.Info().Msg("session ended while the request was in flight")
		return nil, ended
	}
	if created == nil || created.ID == "" {
		o.show(notify.Error(UnexpectedMessage))
		metrics.RecordSubmission("unexpected")
		return nil, ErrUnexpectedResponse
	}

	out := &Outcome{Request: created, Payload: payload}
	if pos, err := o.positioner.Position(ctx, created.ID); err != nil {
		if o.expired(err) {
			metrics.RecordSubmission("expired")
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		logger.Warn().Err(err).Str("request_id", created.ID).Msg("position unavailable")
	} else {
		out.Position = pos
	}
	if ended := o.ended(); ended != nil {
		metrics.RecordSubmission("closed")
		return nil, ended
	}

	out.Message = Confirmation(payload.Title, out.Position)
	o.show(notify.Success(out.Message))
	metrics.RecordSubmission("ok")
	logger.Info().Str("request_id", created.ID).Int("rank", out.Position.Rank).Msg("song requested")

	if o.opts.Search != nil {
		o.opts.Search.Clear()
	}
	o.scheduleReturn()
	return out, nil
}

// expired routes an expiry error to the session, or recognizes it when the
// orchestrator runs without one. Either way no generic notice is shown.
func (o *Orchestrator) expired(err error) bool {
	if o.opts.Session != nil {
		return o.opts.Session.HandleError(err)
	}
	return lifecycle.IsSessionExpired(err)
}

// ended reports a session that turned terminal mid-flight.
func (o *Orchestrator) ended() error {
	if o.opts.Session == nil {
		return nil
	}
	switch o.opts.Session.State() {
	case lifecycle.StateExpired:
		return ErrSessionExpired
	case lifecycle.StateClosed:
		return ErrSessionClosed
	}
	return nil
}

// Confirmation renders the success text.
func Confirmation(title string, pos queue.Position) string {
	if !pos.Ranked() {
		return fmt.Sprintf("Requested %q. Calculating position…", title)
	}
	return fmt.Sprintf("Requested %q. Your song is %s in the queue.", title, pos)
}

func (o *Orchestrator) scheduleReturn() {
	if o.opts.Navigator == nil || o.opts.ReturnAfter <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.returnTimer != nil {
		o.returnTimer.Stop()
	}
	o.returnTimer = time.AfterFunc(o.opts.ReturnAfter, func() {
		if o.alive.Load() {
			o.opts.Navigator.Navigate(o.opts.ReturnRoute)
		}
	})
}

// Close cancels a pending return navigation.
func (o *Orchestrator) Close() {
	o.alive.Store(false)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.returnTimer != nil {
		o.returnTimer.Stop()
		o.returnTimer = nil
	}
}

func (o *Orchestrator) show(n notify.Notice) {
	if o.opts.Notifier != nil && o.alive.Load() {
		o.opts.Notifier.Show(n)
	}
}
