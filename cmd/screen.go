package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"venue-client/internal/console"
	"venue-client/internal/notify"
	"venue-client/internal/search"
	"venue-client/internal/track"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	helpLine    = "↑/↓ select · Enter request · Esc clear · Tab my requests · Ctrl+Z away · Ctrl+C quit"
)

// screen is the full-screen view of the request flow. Lines end in \r\n
// because the terminal is in raw mode.
type screen struct {
	out   io.Writer
	width int

	mu       sync.Mutex
	table    string
	status   string
	query    string
	results  search.State
	selected int
	notice   *notify.Notice
	position string
	mine     []string
}

func newScreen(out io.Writer, width int, table string) *screen {
	if width < 20 {
		width = 20
	}
	return &screen{out: out, width: width, table: table, status: "active"}
}

func (s *screen) setQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

func (s *screen) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// setSearch takes a new search state. A state for an older query is still
// shown; the selection is reset whenever the results change.
func (s *screen) setSearch(st search.State) {
	s.mu.Lock()
	if len(st.Tracks) != len(s.results.Tracks) || st.Query != s.results.Query {
		s.selected = 0
	}
	s.results = st
	s.mu.Unlock()
	s.render()
}

func (s *screen) setNotice(n *notify.Notice) {
	s.mu.Lock()
	s.notice = n
	s.mu.Unlock()
	s.render()
}

func (s *screen) setPosition(text string) {
	s.mu.Lock()
	s.position = text
	s.mu.Unlock()
	s.render()
}

func (s *screen) setMine(lines []string) {
	s.mu.Lock()
	s.mine = lines
	s.mu.Unlock()
	s.render()
}

// reset returns to the empty search view.
func (s *screen) reset() {
	s.mu.Lock()
	s.selected = 0
	s.mine = nil
	s.mu.Unlock()
	s.render()
}

func (s *screen) move(delta int) {
	s.mu.Lock()
	n := len(s.results.Tracks)
	if n > 0 {
		s.selected = (s.selected + delta + n) % n
	}
	s.mu.Unlock()
}

func (s *screen) selectedTrack() (track.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 || s.selected >= len(s.results.Tracks) {
		return track.Track{}, false
	}
	return s.results.Tracks[s.selected], true
}

func (s *screen) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, s.frameLocked())
}

func (s *screen) frameLocked() string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, console.Truncate(fmt.Sprintf(format, args...), s.width))
	}
	rule := strings.Repeat("─", min(s.width, 60))

	add("🎵 Table %s · session %s", s.table, s.status)
	add("%s", rule)
	add("Search: %s▏", s.query)
	add("  %s", s.results.Status())

	titleWidth := max(s.width-12, 8)
	for i, t := range s.results.Tracks {
		marker := "  "
		if i == s.selected {
			marker = "> "
		}
		label := t.Title
		if t.ArtistNames != "" {
			label += " — " + t.ArtistNames
		}
		add("%s%s %5s", marker, console.Pad(console.Truncate(label, titleWidth-2), titleWidth-2), track.FormatDuration(t.DurationMs))
	}

	add("%s", rule)
	if s.position != "" {
		add("Queue: %s", s.position)
	}
	for _, m := range s.mine {
		add("  • %s", m)
	}
	if s.notice != nil {
		add("%s", noticeLine(*s.notice))
	}
	add("%s", helpLine)

	return clearScreen + strings.Join(lines, "\r\n") + "\r\n"
}

func noticeLine(n notify.Notice) string {
	switch n.Level {
	case notify.LevelSuccess:
		return "✅ " + n.Text
	case notify.LevelError:
		if n.Sticky {
			return "⛔ " + n.Text
		}
		return "✗ " + n.Text
	default:
		return "ℹ " + n.Text
	}
}
