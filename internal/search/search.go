// Package search runs debounced catalog searches and keeps the latest
// results.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"venue-client/internal/api"
	"venue-client/internal/metrics"
	"venue-client/internal/notify"
	"venue-client/internal/track"
)

const (
	defaultDebounce = 350 * time.Millisecond
	defaultLimit    = 12
	defaultTimeout  = 15 * time.Second
)

// Searcher queries the catalog. The result is the raw decoded document.
type Searcher interface {
	SearchTracks(ctx context.Context, query string) (any, error)
}

// Notifier surfaces search failures.
type Notifier interface {
	Show(n notify.Notice)
}

// Config tunes the controller.
type Config struct {
	Debounce time.Duration
	Limit    int
	Timeout  time.Duration
}

// State is what a view renders.
type State struct {
	Query     string
	Tracks    []track.Track
	Searching bool
	Err       string
}

// Status is a one-line summary of the state.
func (s State) Status() string {
	switch {
	case s.Searching:
		return "Searching…"
	case s.Err != "":
		return s.Err
	case len(s.Tracks) == 1:
		return "1 result"
	case len(s.Tracks) > 1:
		return fmt.Sprintf("%d results", len(s.Tracks))
	case strings.TrimSpace(s.Query) != "":
		return fmt.Sprintf("No songs found for %q", strings.TrimSpace(s.Query))
	default:
		return "—"
	}
}

// Controller debounces query changes into searches. A newer query cancels
// both the pending timer and any search still in flight.
type Controller struct {
	cfg      Config
	searcher Searcher
	notifier Notifier
	onChange func(State)

	mu     sync.Mutex
	state  State
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	alive  atomic.Bool
}

// New builds a controller. notifier and onChange may be nil.
func New(cfg Config, searcher Searcher, notifier Notifier, onChange func(State)) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Controller{
		cfg:      cfg,
		searcher: searcher,
		notifier: notifier,
		onChange: onChange,
	}
	c.alive.Store(true)
	return c
}

// SetQuery records a query change and restarts the debounce timer.
func (c *Controller) SetQuery(q string) {
	if !c.alive.Load() {
		return
	}

	c.mu.Lock()
	c.supersedeLocked()
	c.state.Query = q
	seq := c.seq
	c.timer = time.AfterFunc(c.cfg.Debounce, func() { c.fire(seq) })
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snapshot)
}

// Clear empties the query and results at once.
func (c *Controller) Clear() {
	if !c.alive.Load() {
		return
	}

	c.mu.Lock()
	c.supersedeLocked()
	c.state = State{}
	c.mu.Unlock()

	c.emit(State{})
}

// Close cancels the pending timer and any search in flight.
func (c *Controller) Close() {
	c.alive.Store(false)
	c.mu.Lock()
	c.supersedeLocked()
	c.mu.Unlock()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) supersedeLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if seq != c.seq || !c.alive.Load() {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	q := strings.TrimSpace(c.state.Query)
	if q == "" {
		c.state.Tracks = nil
		c.state.Searching = false
		c.state.Err = ""
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		metrics.RecordSearch("empty")
		c.emit(snapshot)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	c.cancel = cancel
	c.state.Searching = true
	c.state.Err = ""
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snapshot)

	doc, err := c.searcher.SearchTracks(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		cancel()
		metrics.RecordSearch("superseded")
		return
	}
	c.cancel = nil
	cancel()

	var failure string
	if err != nil {
		failure = api.HumanMessage(err, "Search failed. Try again.")
		if errors.Is(err, context.DeadlineExceeded) {
			failure = "Search took too long. Try again."
		}
		c.state.Tracks = nil
		c.state.Err = failure
		metrics.RecordSearch("error")
		log.Warn().Err(err).Str("query", q).Msg("search failed")
	} else {
		c.state.Tracks = Normalize(doc, c.cfg.Limit)
		metrics.RecordSearch("ok")
		log.Debug().Str("query", q).Int("results", len(c.state.Tracks)).Msg("search done")
	}
	c.state.Searching = false
	snapshot = c.snapshotLocked()
	c.mu.Unlock()

	if failure != "" && c.notifier != nil && c.alive.Load() {
		c.notifier.Show(notify.Error(failure))
	}
	c.emit(snapshot)
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Tracks != nil {
		s.Tracks = append([]track.Track(nil), s.Tracks...)
	}
	return s
}

func (c *Controller) emit(s State) {
	if c.onChange != nil && c.alive.Load() {
		c.onChange(s)
	}
}
