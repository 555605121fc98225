package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"venue-client/internal/notify"
	"venue-client/internal/queue"
	"venue-client/internal/search"
	"venue-client/internal/track"
)

func TestScreenFrame(t *testing.T) {
	var buf bytes.Buffer
	s := newScreen(&buf, 80, "T1")
	ms := int64(202000)

	s.setQuery("moon")
	s.setSearch(search.State{Query: "moon", Tracks: []track.Track{
		{Title: "Moonlight", ArtistNames: "Luna", DurationMs: &ms},
		{Title: "Moon River"},
	}})
	s.move(1)
	s.setNotice(&notify.Notice{Level: notify.LevelSuccess, Text: "Requested"})

	frame := buf.String()
	frame = frame[strings.LastIndex(frame, clearScreen):]
	assert.Contains(t, frame, "Table T1 · session active")
	assert.Contains(t, frame, "Search: moon▏")
	assert.Contains(t, frame, "2 results")
	assert.Contains(t, frame, "3:22")
	assert.Contains(t, frame, "> Moon River")
	assert.Contains(t, frame, "✅ Requested")

	got, ok := s.selectedTrack()
	assert.True(t, ok)
	assert.Equal(t, "Moon River", got.Title)

	s.move(1)
	got, _ = s.selectedTrack()
	assert.Equal(t, "Moonlight", got.Title)
}

func TestScreenEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := newScreen(&buf, 10, "T2")

	_, ok := s.selectedTrack()
	assert.False(t, ok)
	s.move(1)
	s.render()

	for _, line := range strings.Split(strings.TrimPrefix(buf.String(), clearScreen), "\r\n") {
		assert.LessOrEqual(t, len([]rune(line)), 20)
	}
}

func TestPositionLine(t *testing.T) {
	assert.Equal(t, `"Yellow" #2 of 5`, positionLine("Yellow", queue.Position{Rank: 2, Total: 5, Status: "queued"}))
	assert.Equal(t, `"Yellow" #1 of 5 · playing now`, positionLine("Yellow", queue.Position{Rank: 1, Total: 5, Status: "playing"}))
	assert.Equal(t, `"Yellow" calculating position…`, positionLine("Yellow", queue.Position{}))
}

func TestNoticeLine(t *testing.T) {
	assert.Equal(t, "⛔ gone", noticeLine(notify.Overlay("gone")))
	assert.Equal(t, "✗ bad", noticeLine(notify.Error("bad")))
	assert.Equal(t, "ℹ hi", noticeLine(notify.Info("hi")))
}
