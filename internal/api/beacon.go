package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	beaconQueueSize  = 4
	defaultBeaconTTL = 5 * time.Second
)

// Beacon delivers session-close notifications without blocking the caller.
// Sends run detached from any caller context so they survive teardown; Flush
// gives them a bounded chance to finish before the process exits.
type Beacon struct {
	client  *Client
	timeout time.Duration
	queue   chan string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBeacon starts the delivery worker. timeout bounds each send.
func NewBeacon(client *Client, timeout time.Duration) *Beacon {
	if timeout <= 0 {
		timeout = defaultBeaconTTL
	}
	b := &Beacon{
		client:  client,
		timeout: timeout,
		queue:   make(chan string, beaconQueueSize),
	}
	go b.run()
	return b
}

func (b *Beacon) run() {
	for id := range b.queue {
		b.send(id, "beacon")
	}
}

// CloseSession queues a close for sessionID. When the queue is full the send
// falls back to its own goroutine. It reports false once the beacon is
// flushed.
func (b *Beacon) CloseSession(sessionID string) bool {
	if sessionID == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}

	b.wg.Add(1)
	select {
	case b.queue <- sessionID:
	default:
		go b.send(sessionID, "fallback")
	}
	return true
}

func (b *Beacon) send(sessionID, via string) {
	defer b.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if _, err := b.client.CloseSession(ctx, sessionID); err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Str("via", via).Msg("close notification not delivered")
		return
	}
	log.Debug().Str("session_id", sessionID).Str("via", via).Msg("close notification delivered")
}

// Flush stops accepting sends and waits up to timeout for pending ones. It
// reports whether everything finished in time.
func (b *Beacon) Flush(timeout time.Duration) bool {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
