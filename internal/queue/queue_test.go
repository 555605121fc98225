package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-client/internal/api"
)

func listOf(ids ...string) *api.RequestList {
	l := &api.RequestList{}
	for _, id := range ids {
		l.Items = append(l.Items, api.SongRequest{ID: id, Status: api.StatusQueued})
	}
	return l
}

func intp(v int) *int { return &v }

func TestLocate(t *testing.T) {
	abc := listOf("a", "b", "c")

	pos := Locate(abc, "b")
	assert.Equal(t, 2, pos.Rank)
	assert.Equal(t, 3, pos.Total)
	assert.Equal(t, api.StatusQueued, pos.Status)
	assert.Equal(t, "#2 of 3", pos.String())

	missing := Locate(abc, "z")
	assert.False(t, missing.Ranked())
	assert.Equal(t, 3, missing.Total)
	assert.Equal(t, "calculating position…", missing.String())

	withTotal := listOf("a")
	withTotal.Total = intp(40)
	assert.Equal(t, Position{Rank: 1, Total: 40, Status: api.StatusQueued}, Locate(withTotal, "a"))

	assert.Equal(t, Position{}, Locate(nil, "a"))
	assert.Equal(t, Position{}, Locate(&api.RequestList{}, "a"))
}

func TestLocateKeepsServerOrder(t *testing.T) {
	l := listOf("late", "early")
	l.Items[0].CreatedAt = time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	l.Items[1].CreatedAt = time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, Locate(l, "late").Rank)
}

type scriptedLister struct {
	mu    sync.Mutex
	lists []*api.RequestList
	errs  []error
	calls int
	mine  string
}

func (s *scriptedLister) ActiveRequests(context.Context) (*api.RequestList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.lists) {
		return s.lists[len(s.lists)-1], nil
	}
	return s.lists[i], nil
}

func (s *scriptedLister) MyActiveRequests(_ context.Context, sessionID string) (*api.RequestList, error) {
	s.mu.Lock()
	s.mine = sessionID
	s.mu.Unlock()
	return listOf("r1", "r2"), nil
}

func TestTrackerPosition(t *testing.T) {
	lister := &scriptedLister{lists: []*api.RequestList{listOf("a", "b", "c")}}
	tr := NewTracker(lister)

	for i := 0; i < 3; i++ {
		pos, err := tr.Position(context.Background(), "c")
		require.NoError(t, err)
		assert.Equal(t, 3, pos.Rank)
	}

	lister.errs = []error{nil, nil, nil, errors.New("down")}
	_, err := tr.Position(context.Background(), "c")
	assert.ErrorContains(t, err, "queue position")
}

func TestTrackerMine(t *testing.T) {
	lister := &scriptedLister{}
	mine, err := NewTracker(lister).Mine(context.Background(), "S1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, "S1", lister.mine)
}

func TestPollerStopsWhenRequestLeaves(t *testing.T) {
	lister := &scriptedLister{lists: []*api.RequestList{
		listOf("x", "r"),
		listOf("r"),
		listOf("y"),
	}}

	var seen []Position
	p := NewPoller(NewTracker(lister), 5*time.Millisecond, func(pos Position) { seen = append(seen, pos) }, nil)

	last, err := p.Run(context.Background(), "r")
	require.NoError(t, err)
	assert.False(t, last.Ranked())
	require.Len(t, seen, 3)
	assert.Equal(t, "#2 of 2", seen[0].String())
	assert.Equal(t, "#1 of 1", seen[1].String())
}

func TestPollerErrorHandling(t *testing.T) {
	boom := errors.New("boom")

	t.Run("continue on error", func(t *testing.T) {
		lister := &scriptedLister{lists: []*api.RequestList{nil, listOf("y")}, errs: []error{boom}}
		var errs int
		p := NewPoller(NewTracker(lister), time.Millisecond, nil, func(error) bool { errs++; return true })
		_, err := p.Run(context.Background(), "r")
		require.NoError(t, err)
		assert.Equal(t, 1, errs)
	})

	t.Run("stop on error", func(t *testing.T) {
		lister := &scriptedLister{lists: []*api.RequestList{nil}, errs: []error{boom}}
		p := NewPoller(NewTracker(lister), time.Millisecond, nil, func(error) bool { return false })
		_, err := p.Run(context.Background(), "r")
		assert.ErrorIs(t, err, boom)
	})
}

func TestPollerCancelled(t *testing.T) {
	lister := &scriptedLister{lists: []*api.RequestList{listOf("r")}}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	p := NewPoller(NewTracker(lister), 5*time.Millisecond, nil, nil)
	last, err := p.Run(ctx, "r")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, last.Rank)
}
