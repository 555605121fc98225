// Package notify shows short user-facing notices that hide themselves.
package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is one message. Sticky notices stay until replaced or cancelled.
type Notice struct {
	Level  Level
	Text   string
	Sticky bool
}

func Info(text string) Notice    { return Notice{Level: LevelInfo, Text: text} }
func Success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }
func Error(text string) Notice   { return Notice{Level: LevelError, Text: text} }

// Overlay is a sticky notice, used for terminal states such as expiry.
func Overlay(text string) Notice { return Notice{Level: LevelError, Text: text, Sticky: true} }

const defaultTTL = 4 * time.Second

// Toaster holds the current notice and hides it after ttl. onChange receives
// the new notice, or nil when it is hidden.
type Toaster struct {
	ttl      time.Duration
	onChange func(*Notice)

	mu      sync.Mutex
	current *Notice
	hide    *time.Timer
	gen     uint64
	alive   atomic.Bool
}

// NewToaster creates a Toaster. onChange may be nil.
func NewToaster(ttl time.Duration, onChange func(*Notice)) *Toaster {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	t := &Toaster{ttl: ttl, onChange: onChange}
	t.alive.Store(true)
	return t
}

// Show replaces the current notice. A sticky notice stays until Cancel or
// another sticky notice replaces it.
func (t *Toaster) Show(n Notice) {
	if !t.alive.Load() {
		return
	}

	t.mu.Lock()
	if t.current != nil && t.current.Sticky && !n.Sticky {
		t.mu.Unlock()
		return
	}
	t.stopHideLocked()
	t.gen++
	gen := t.gen
	cur := n
	t.current = &cur
	if !n.Sticky {
		t.hide = time.AfterFunc(t.ttl, func() { t.expire(gen) })
	}
	t.mu.Unlock()

	t.emit(&cur)
}

func (t *Toaster) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.current == nil {
		t.mu.Unlock()
		return
	}
	t.current = nil
	t.hide = nil
	t.mu.Unlock()

	t.emit(nil)
}

// Current returns the visible notice, or nil.
func (t *Toaster) Current() *Notice {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	n := *t.current
	return &n
}

// Cancel hides the current notice and drops its pending hide.
func (t *Toaster) Cancel() {
	t.mu.Lock()
	t.stopHideLocked()
	t.gen++
	had := t.current != nil
	t.current = nil
	t.mu.Unlock()

	if had {
		t.emit(nil)
	}
}

// Close cancels the pending hide. Nothing is emitted after Close.
func (t *Toaster) Close() {
	t.alive.Store(false)
	t.mu.Lock()
	t.stopHideLocked()
	t.gen++
	t.current = nil
	t.mu.Unlock()
}

func (t *Toaster) stopHideLocked() {
	if t.hide != nil {
		t.hide.Stop()
		t.hide = nil
	}
}

func (t *Toaster) emit(n *Notice) {
	if t.onChange != nil && t.alive.Load() {
		t.onChange(n)
	}
}
