package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-client/internal/api"
	"venue-client/internal/identity"
	"venue-client/internal/notify"
)

type fakePinger struct {
	calls atomic.Int32
	mu    sync.Mutex
	err   error
}

func (p *fakePinger) Ping(_ context.Context, _ string) (*api.PingResponse, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &api.PingResponse{OK: true}, nil
}

func (p *fakePinger) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

type fakeCloser struct {
	mu  sync.Mutex
	ids []string
}

func (c *fakeCloser) CloseSession(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return true
}

func (c *fakeCloser) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

type fakeNotifier struct {
	mu        sync.Mutex
	notices   []notify.Notice
	cancelled int
}

func (n *fakeNotifier) Show(notice notify.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled++
}

func (n *fakeNotifier) shown() []notify.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notice(nil), n.notices...)
}

type fakeNavigator struct {
	mu      sync.Mutex
	routes  []string
	closing int
}

func (n *fakeNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *fakeNavigator) CloseWindow() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closing++
}

func (n *fakeNavigator) snapshot() ([]string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...), n.closing
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	ctrl     *Controller
	pinger   *fakePinger
	closer   *fakeCloser
	notifier *fakeNotifier
	nav      *fakeNavigator
	ids      *identity.Store
	clock    *fakeClock
	presence *Presence
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		pinger:   &fakePinger{},
		closer:   &fakeCloser{},
		notifier: &fakeNotifier{},
		nav:      &fakeNavigator{},
		ids:      identity.NewStore(identity.NewMemoryKV()),
		clock:    &fakeClock{now: time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, h.ids.Save(identity.Identity{SessionID: "S1", TableID: "T1"}))
	h.presence = NewPresence(h.clock.Now)
	h.ctrl = New(cfg, Options{
		Pinger:    h.pinger,
		Closer:    h.closer,
		Notifier:  h.notifier,
		Navigator: h.nav,
		Identity:  h.ids,
		Presence:  h.presence,
	})
	t.Cleanup(h.ctrl.Teardown)
	return h
}

// quiet keeps the background ticker out of the way so tests drive Beat.
var quiet = Config{HeartbeatInterval: time.Hour, ActivityWindow: 90 * time.Second, RedirectDelay: 20 * time.Millisecond}

func TestStart(t *testing.T) {
	h := newHarness(t, quiet)

	assert.ErrorIs(t, h.ctrl.Start("  "), ErrNoSession)
	assert.Equal(t, StateUninitialized, h.ctrl.State())

	require.NoError(t, h.ctrl.Start("S1"))
	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Equal(t, "S1", h.ctrl.SessionID())
	assert.ErrorIs(t, h.ctrl.Start("S2"), ErrAlreadyStarted)
}

func TestBeatGating(t *testing.T) {
	tests := []struct {
		name     string
		visible  bool
		idleFor  time.Duration
		wantPing bool
	}{
		{"hidden with recent interaction", false, time.Second, false},
		{"hidden and idle", false, 5 * time.Minute, false},
		{"visible and recent", true, 30 * time.Second, true},
		{"visible but idle", true, 91 * time.Second, false},
		{"visible at window edge", true, 90 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, quiet)
			require.NoError(t, h.ctrl.Start("S1"))

			h.ctrl.Touch()
			h.clock.Advance(tt.idleFor)
			h.presence.SetVisible(tt.visible)

			sent := h.ctrl.Beat(context.Background())
			assert.Equal(t, tt.wantPing, sent)
			if tt.wantPing {
				assert.Equal(t, int32(1), h.pinger.calls.Load())
			} else {
				assert.Zero(t, h.pinger.calls.Load())
			}
			assert.Equal(t, StateActive, h.ctrl.State())
		})
	}
}

func TestBeatBeforeStartDoesNothing(t *testing.T) {
	h := newHarness(t, quiet)
	assert.False(t, h.ctrl.Beat(context.Background()))
	assert.Zero(t, h.pinger.calls.Load())
}

func TestHeartbeatTicker(t *testing.T) {
	h := newHarness(t, Config{HeartbeatInterval: 10 * time.Millisecond, ActivityWindow: time.Hour})
	require.NoError(t, h.ctrl.Start("S1"))

	assert.Eventually(t, func() bool { return h.pinger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	h.ctrl.Teardown()
	stopped := h.pinger.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, h.pinger.calls.Load(), stopped+1)
}

func TestVisibilityRegainedPings(t *testing.T) {
	h := newHarness(t, quiet)
	require.NoError(t, h.ctrl.Start("S1"))

	h.ctrl.SetVisible(false)
	assert.Zero(t, h.pinger.calls.Load())

	h.ctrl.SetVisible(true)
	assert.Eventually(t, func() bool { return h.pinger.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPingGoneExpiresSession(t *testing.T) {
	h := newHarness(t, quiet)
	require.NoError(t, h.ctrl.Start("S1"))
	h.pinger.fail(&api.Error{Status: 410, Body: "gone"})

	assert.True(t, h.ctrl.Beat(context.Background()))

	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.False(t, h.ids.Current().HasSession(), "identity purged")

	shown := h.notifier.shown()
	require.Len(t, shown, 1)
	assert.Equal(t, ExpiredMessage, shown[0].Text)
	assert.True(t, shown[0].Sticky)

	select {
	case <-h.ctrl.Done():
	default:
		t.Fatal("Done not closed after expiry")
	}

	assert.Eventually(t, func() bool {
		routes, closing := h.nav.snapshot()
		return len(routes) == 1 && closing == 1
	}, time.Second, 5*time.Millisecond)
	routes, _ := h.nav.snapshot()
	assert.Equal(t, "/", routes[0])

	// No further heartbeats.
	h.pinger.fail(nil)
	assert.False(t, h.ctrl.Beat(context.Background()))
	assert.Equal(t, int32(1), h.pinger.calls.Load())
}

func TestTransportErrorKeepsSession(t *testing.T) {
	h := newHarness(t, quiet)
	require.NoError(t, h.ctrl.Start("S1"))
	h.pinger.fail(fmt.Errorf("%w: dial tcp", api.ErrTransport))

	assert.True(t, h.ctrl.Beat(context.Background()))
	assert.Equal(t, StateActive, h.ctrl.State())
	assert.True(t, h.ids.Current().HasSession())
}

func TestTeardownCancelsRedirect(t *testing.T) {
	h := newHarness(t, quiet)
	require.NoError(t, h.ctrl.Start("S1"))

	assert.True(t, h.ctrl.HandleError(&api.Error{Status: 410}))
	h.ctrl.Teardown()
	time.Sleep(60 * time.Millisecond)

	routes, closing := h.nav.snapshot()
	assert.Empty(t, routes)
	assert.Zero(t, closing)

	h.notifier.mu.Lock()
	assert.Equal(t, 1, h.notifier.cancelled)
	h.notifier.mu.Unlock()
}

func TestExitSendsOneClose(t *testing.T) {
	h := newHarness(t, quiet)
	require.NoError(t, h.ctrl.Start("S1"))

	var wg sync.WaitGroup
	for _, reason := range []string{"pagehide", "unload", "signal"} {
		wg.Add(1)
		go func(reason string) {
			defer wg.Done()
			h.ctrl.Exit(reason)
		}(reason)
	}
	wg.Wait()

	assert.Equal(t, []string{"S1"}, h.closer.sent())
	assert.Equal(t, StateClosed, h.ctrl.State())
	assert.False(t, h.ids.Current().HasSession())
	assert.False(t, h.ctrl.Exit("again"))
}

func TestExitAfterExpirySendsNothing(t *testing.T) {
	h := newHarness(t, quiet)
	require.NoError(t, h.ctrl.Start("S1"))
	h.ctrl.HandleError(errors.New(`{"code":"SESSION_EXPIRED"}`))

	assert.False(t, h.ctrl.Exit("pagehide"))
	assert.Empty(t, h.closer.sent())
}

func TestIsSessionExpired(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gone", &api.Error{Status: 410}, true},
		{"forbidden expired", &api.Error{Status: 403, Code: "SESSION_EXPIRED"}, true},
		{"forbidden invalid lower case", &api.Error{Status: 403, Code: "session invalid"}, true},
		{"forbidden other", &api.Error{Status: 403, Code: "FORBIDDEN"}, false},
		{"unauthorized no session", &api.Error{Status: 401, Code: "no-session"}, true},
		{"unauthorized other", &api.Error{Status: 401, Code: "BAD_TOKEN"}, false},
		{"expired code on any status", &api.Error{Status: 400, Code: "SESSION_EXPIRED"}, true},
		{"invalid code on bad request", &api.Error{Status: 400, Code: "SESSION_INVALID"}, false},
		{"embedded json", errors.New(`Error: {"code":"Session Expired","msg":"x"}`), true},
		{"wrapped", fmt.Errorf("ping: %w", &api.Error{Status: 410}), true},
		{"transport", fmt.Errorf("%w: eof", api.ErrTransport), false},
		{"plain", errors.New("session expired"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSessionExpired(tt.err))
		})
	}
}
