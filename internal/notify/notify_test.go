package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []*Notice
}

func (r *recorder) record(n *Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recorder) snapshot() []*Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Notice(nil), r.events...)
}

func TestToasterAutoHide(t *testing.T) {
	rec := &recorder{}
	toaster := NewToaster(20*time.Millisecond, rec.record)
	defer toaster.Close()

	toaster.Show(Success("Requested"))
	require.NotNil(t, toaster.Current())
	assert.Equal(t, "Requested", toaster.Current().Text)

	assert.Eventually(t, func() bool { return toaster.Current() == nil }, time.Second, 5*time.Millisecond)

	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, LevelSuccess, events[0].Level)
	assert.Nil(t, events[1])
}

func TestToasterReplaceRestartsTimer(t *testing.T) {
	toaster := NewToaster(50*time.Millisecond, nil)
	defer toaster.Close()

	toaster.Show(Info("first"))
	time.Sleep(30 * time.Millisecond)
	toaster.Show(Info("second"))
	time.Sleep(30 * time.Millisecond)

	require.NotNil(t, toaster.Current())
	assert.Equal(t, "second", toaster.Current().Text)
}

func TestToasterStickyStays(t *testing.T) {
	toaster := NewToaster(10*time.Millisecond, nil)
	defer toaster.Close()

	toaster.Show(Overlay("Session expired"))
	time.Sleep(40 * time.Millisecond)
	require.NotNil(t, toaster.Current())

	toaster.Cancel()
	assert.Nil(t, toaster.Current())
}

func TestToasterStickyNotReplacedByTransient(t *testing.T) {
	rec := &recorder{}
	toaster := NewToaster(10*time.Millisecond, rec.record)
	defer toaster.Close()

	toaster.Show(Overlay("Session expired"))
	toaster.Show(Success("Requested"))
	toaster.Show(Error("boom"))

	require.NotNil(t, toaster.Current())
	assert.Equal(t, "Session expired", toaster.Current().Text)
	assert.Len(t, rec.snapshot(), 1)

	toaster.Cancel()
	toaster.Show(Info("back"))
	require.NotNil(t, toaster.Current())
	assert.Equal(t, "back", toaster.Current().Text)
}

func TestToasterSilentAfterClose(t *testing.T) {
	rec := &recorder{}
	toaster := NewToaster(10*time.Millisecond, rec.record)

	toaster.Show(Error("boom"))
	toaster.Close()
	time.Sleep(30 * time.Millisecond)
	toaster.Show(Info("late"))

	assert.Len(t, rec.snapshot(), 1)
	assert.Nil(t, toaster.Current())
}
