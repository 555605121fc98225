// Package lifecycle keeps a table session alive and reacts when it ends.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"venue-client/internal/api"
	"venue-client/internal/metrics"
	"venue-client/internal/notify"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrAlreadyStarted = errors.New("lifecycle already started")
)

// ExpiredMessage is shown when the server ends the session.
const ExpiredMessage = "Your table session has expired. Scan the table QR code again to keep ordering."

// State is the lifecycle state of one session.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateExpired
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Terminal reports whether the session can no longer be used.
func (s State) Terminal() bool {
	return s == StateExpired || s == StateClosed
}

// Config tunes the controller.
type Config struct {
	HeartbeatInterval time.Duration
	ActivityWindow    time.Duration
	RedirectDelay     time.Duration
	PingTimeout       time.Duration
	LandingRoute      string
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 70 * time.Second,
		ActivityWindow:    90 * time.Second,
		RedirectDelay:     4 * time.Second,
		PingTimeout:       10 * time.Second,
		LandingRoute:      "/",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.ActivityWindow <= 0 {
		c.ActivityWindow = d.ActivityWindow
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = d.RedirectDelay
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = d.PingTimeout
	}
	if c.LandingRoute == "" {
		c.LandingRoute = d.LandingRoute
	}
	return c
}

// Pinger extends the session's idle deadline.
type Pinger interface {
	Ping(ctx context.Context, sessionID string) (*api.PingResponse, error)
}

// Closer sends a close notification that must survive teardown. It must not
// block.
type Closer interface {
	CloseSession(sessionID string) bool
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Show(n notify.Notice)
	Cancel()
}

// Navigator moves the user around. Calls must not block.
type Navigator interface {
	Navigate(route string)
	CloseWindow()
}

// IdentityClearer purges the persisted identity.
type IdentityClearer interface {
	Clear() error
}

// Options are the controller's collaborators. Only Pinger is required.
type Options struct {
	Pinger    Pinger
	Closer    Closer
	Notifier  Notifier
	Navigator Navigator
	Identity  IdentityClearer
	Presence  *Presence
}

// Controller drives Uninitialized -> Active -> {Expired, Closed}.
type Controller struct {
	cfg      Config
	pinger   Pinger
	closer   Closer
	notifier Notifier
	nav      Navigator
	ids      IdentityClearer
	presence *Presence

	mu        sync.Mutex
	state     State
	sessionID string
	cancel    context.CancelFunc
	redirect  *time.Timer
	closeSent bool

	alive    atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// New builds a controller in the Uninitialized state.
func New(cfg Config, opts Options) *Controller {
	presence := opts.Presence
	if presence == nil {
		presence = NewPresence(nil)
	}
	c := &Controller{
		cfg:      cfg.withDefaults(),
		pinger:   opts.Pinger,
		closer:   opts.Closer,
		notifier: opts.Notifier,
		nav:      opts.Navigator,
		ids:      opts.Identity,
		presence: presence,
		done:     make(chan struct{}),
	}
	c.alive.Store(true)
	return c
}

// Start activates the session and begins heartbeats.
func (c *Controller) Start(sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrNoSession
	}

	c.mu.Lock()
	if c.state != StateUninitialized || !c.alive.Load() {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.state = StateActive
	c.sessionID = sessionID
	c.cancel = cancel
	c.mu.Unlock()

	c.presence.Touch()
	metrics.RecordTransition(StateActive.String())
	log.Info().Str("session_id", sessionID).Dur("interval", c.cfg.HeartbeatInterval).Msg("session active")

	go c.heartbeat(ctx)
	return nil
}

func (c *Controller) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Beat(ctx)
		}
	}
}

// Beat runs one heartbeat decision and reports whether a ping was sent. A
// ping goes out only while the client is visible and the user interacted
// within the activity window.
func (c *Controller) Beat(ctx context.Context) bool {
	sessionID, ok := c.activeSession()
	if !ok {
		return false
	}

	if !c.presence.Visible() {
		metrics.RecordHeartbeat("skipped_hidden")
		return false
	}
	if !c.presence.Active(c.cfg.ActivityWindow) {
		metrics.RecordHeartbeat("skipped_idle")
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.PingTimeout)
	defer cancel()

	resp, err := c.pinger.Ping(pingCtx, sessionID)
	if err != nil {
		if c.HandleError(err) {
			metrics.RecordHeartbeat("expired")
			return true
		}
		metrics.RecordHeartbeat("failed")
		log.Warn().Err(err).Str("session_id", sessionID).Msg("heartbeat failed")
		return true
	}

	metrics.RecordHeartbeat("sent")
	ev := log.Debug().Str("session_id", sessionID)
	if resp != nil && resp.Until != nil {
		ev = ev.Time("until", *resp.Until)
	}
	ev.Msg("heartbeat")
	return true
}

// Touch records a user interaction.
func (c *Controller) Touch() {
	c.presence.Touch()
}

// SetVisible updates visibility. Regaining it triggers an immediate beat.
func (c *Controller) SetVisible(visible bool) {
	if c.presence.SetVisible(visible) && c.alive.Load() {
		go c.Beat(context.Background())
	}
}

// HandleError moves the session to Expired when err is an expiry signal and
// reports whether it was one.
func (c *Controller) HandleError(err error) bool {
	if !IsSessionExpired(err) {
		return false
	}
	c.expire(err)
	return true
}

func (c *Controller) expire(cause error) {
	c.mu.Lock()
	if c.state != StateActive || !c.alive.Load() {
		c.mu.Unlock()
		return
	}
	sessionID := c.sessionID
	c.state = StateExpired
	c.stopHeartbeatLocked()
	c.redirect = time.AfterFunc(c.cfg.RedirectDelay, c.leave)
	c.mu.Unlock()

	metrics.RecordTransition(StateExpired.String())
	log.Info().Err(cause).Str("session_id", sessionID).Msg("session expired")

	if c.ids != nil {
		if err := c.ids.Clear(); err != nil {
			log.Warn().Err(err).Msg("purge identity")
		}
	}
	if c.notifier != nil {
		c.notifier.Show(notify.Overlay(ExpiredMessage))
	}
	c.finish()
}

func (c *Controller) leave() {
	if !c.alive.Load() || c.nav == nil {
		return
	}
	c.nav.Navigate(c.cfg.LandingRoute)
	c.nav.CloseWindow()
}

// Exit ends an active session because the user left. At most one close
// notification is sent per controller, however many exit events arrive.
func (c *Controller) Exit(reason string) bool {
	c.mu.Lock()
	if c.closeSent || c.state != StateActive {
		c.mu.Unlock()
		return false
	}
	c.closeSent = true
	sessionID := c.sessionID
	c.state = StateClosed
	c.stopHeartbeatLocked()
	c.mu.Unlock()

	metrics.RecordTransition(StateClosed.String())

	sent := false
	if c.closer != nil {
		sent = c.closer.CloseSession(sessionID)
	}
	log.Info().Str("session_id", sessionID).Str("reason", reason).Bool("queued", sent).Msg("session closed")

	if c.ids != nil {
		if err := c.ids.Clear(); err != nil {
			log.Warn().Err(err).Msg("purge identity")
		}
	}
	c.finish()
	return true
}

// Teardown cancels every timer the controller owns. Callbacks that land
// afterwards are dropped.
func (c *Controller) Teardown() {
	if !c.alive.CompareAndSwap(true, false) {
		return
	}

	c.mu.Lock()
	c.stopHeartbeatLocked()
	if c.redirect != nil {
		c.redirect.Stop()
		c.redirect = nil
	}
	c.mu.Unlock()

	if c.notifier != nil {
		c.notifier.Cancel()
	}
	c.finish()
}

func (c *Controller) stopHeartbeatLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) activeSession() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || !c.alive.Load() {
		return "", false
	}
	return c.sessionID, true
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the session being kept alive.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Done is closed once the session reaches a terminal state or the
// controller is torn down.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
