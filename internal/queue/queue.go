// Package queue locates a song request in the shared playback queue.
package queue

import (
	"context"
	"fmt"

	"venue-client/internal/api"
)

// Position is a request's place in the active queue. Rank is 1-based; zero
// means the request is not in the active list.
type Position struct {
	Rank   int
	Total  int
	Status api.RequestStatus
}

// Ranked reports whether the request was found.
func (p Position) Ranked() bool {
	return p.Rank > 0
}

func (p Position) String() string {
	if !p.Ranked() {
		return "calculating position…"
	}
	return fmt.Sprintf("#%d of %d", p.Rank, p.Total)
}

// Locate finds requestID in an active list, keeping the server's order.
func Locate(list *api.RequestList, requestID string) Position {
	if list == nil {
		return Position{}
	}
	pos := Position{Total: len(list.Items)}
	if list.Total != nil {
		pos.Total = *list.Total
	}
	for i, item := range list.Items {
		if item.ID == requestID {
			pos.Rank = i + 1
			pos.Status = item.Status
			break
		}
	}
	return pos
}

// Lister reads the active request lists.
type Lister interface {
	ActiveRequests(ctx context.Context) (*api.RequestList, error)
	MyActiveRequests(ctx context.Context, sessionID string) (*api.RequestList, error)
}

// Tracker computes queue positions. It only reads.
type Tracker struct {
	lister Lister
}

// NewTracker wraps lister.
func NewTracker(lister Lister) *Tracker {
	return &Tracker{lister: lister}
}

// Position fetches the active list and ranks requestID in it.
func (t *Tracker) Position(ctx context.Context, requestID string) (Position, error) {
	list, err := t.lister.ActiveRequests(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("queue position: %w", err)
	}
	return Locate(list, requestID), nil
}

// Mine lists the active requests made from sessionID, oldest first.
func (t *Tracker) Mine(ctx context.Context, sessionID string) ([]api.SongRequest, error) {
	list, err := t.lister.MyActiveRequests(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("my requests: %w", err)
	}
	if list == nil {
		return nil, nil
	}
	return list.Items, nil
}
