package lifecycle

import (
	"sync"
	"time"
)

// Presence tracks whether the user is looking at the client and when they
// last interacted with it.
type Presence struct {
	mu              sync.Mutex
	now             func() time.Time
	visible         bool
	lastInteraction time.Time
}

// NewPresence starts visible with no interaction recorded. now may be nil.
func NewPresence(now func() time.Time) *Presence {
	if now == nil {
		now = time.Now
	}
	return &Presence{now: now, visible: true}
}

// Touch records an interaction.
func (p *Presence) Touch() {
	p.mu.Lock()
	p.lastInteraction = p.now()
	p.mu.Unlock()
}

// SetVisible updates visibility and reports whether it was just regained.
func (p *Presence) SetVisible(visible bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	regained := visible && !p.visible
	p.visible = visible
	return regained
}

// Visible reports the current visibility.
func (p *Presence) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Active reports whether the last interaction is younger than window.
func (p *Presence) Active(window time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastInteraction.IsZero() {
		return false
	}
	return p.now().Sub(p.lastInteraction) < window
}
