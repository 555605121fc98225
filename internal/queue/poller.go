package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultPollInterval = 5 * time.Second

// Poller refreshes a request's position on a fixed interval until the
// request leaves the active list or ctx ends.
type Poller struct {
	tracker  *Tracker
	interval time.Duration
	onUpdate func(Position)
	onError  func(error) bool
}

// NewPoller builds a poller. onError may stop polling by returning false.
func NewPoller(tracker *Tracker, interval time.Duration, onUpdate func(Position), onError func(error) bool) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		tracker:  tracker,
		interval: interval,
		onUpdate: onUpdate,
		onError:  onError,
	}
}

// Run polls requestID, starting immediately. It returns the last position
// seen once the request is no longer active, or ctx's error.
func (p *Poller) Run(ctx context.Context, requestID string) (Position, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last Position
	for {
		pos, err := p.tracker.Position(ctx, requestID)
		switch {
		case err != nil && ctx.Err() != nil:
			return last, ctx.Err()
		case err != nil:
			log.Debug().Err(err).Str("request_id", requestID).Msg("position refresh failed")
			if p.onError != nil && !p.onError(err) {
				return last, err
			}
		default:
			last = pos
			if p.onUpdate != nil {
				p.onUpdate(pos)
			}
			if !pos.Ranked() {
				return last, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
