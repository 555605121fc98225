package track

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func int64p(v int64) *int64 { return &v }

func TestNormalizeShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Track
	}{
		{
			name: "flat catalog track",
			raw: `{
				"id": "abc123",
				"uri": "spotify:track:abc123",
				"name": "Moonlight",
				"artists": [{"name": "A"}, {"name": "B"}],
				"album": {"images": [{"url": "https://img/1"}, {"url": "https://img/2"}]},
				"external_urls": {"spotify": "https://open.spotify.com/track/abc123"},
				"duration_ms": 215000
			}`,
			want: Track{
				ID:          "abc123",
				URI:         "spotify:track:abc123",
				ExternalURL: "https://open.spotify.com/track/abc123",
				Title:       "Moonlight",
				ArtistNames: "A, B",
				ImageURL:    "https://img/1",
				DurationMs:  int64p(215000),
			},
		},
		{
			name: "track wrapper",
			raw: `{"track": {
				"id": "t1",
				"uri": "spotify:track:t1",
				"name": "Wrapped",
				"artists": [{"name": "W"}],
				"album": {"images": [{"url": "https://img/w"}]},
				"duration_ms": 1000
			}}`,
			want: Track{
				ID:          "t1",
				URI:         "spotify:track:t1",
				Title:       "Wrapped",
				ArtistNames: "W",
				ImageURL:    "https://img/w",
				DurationMs:  int64p(1000),
			},
		},
		{
			name: "partner data wrapper",
			raw: `{"data": {
				"uri": "spotify:track:p1",
				"name": "Partner",
				"artists": {"items": [{"profile": {"name": "X"}}, {"profile": {"name": "Y"}}]},
				"albumOfTrack": {"coverArt": {"sources": [{"url": "https://img/p"}]}},
				"duration": {"totalMilliseconds": 180500}
			}}`,
			want: Track{
				URI:         "spotify:track:p1",
				Title:       "Partner",
				ArtistNames: "X, Y",
				ImageURL:    "https://img/p",
				DurationMs:  int64p(180500),
			},
		},
		{
			name: "id only with seconds duration",
			raw:  `{"id": "xyz789", "title": "Bare", "artist": "Solo", "duration": "42"}`,
			want: Track{
				ID:           "xyz789",
				URI:          "spotify:track:xyz789",
				SyntheticURI: true,
				Title:        "Bare",
				ArtistNames:  "Solo",
				DurationMs:   int64p(42000),
			},
		},
		{
			name: "plain image strings and picture fallback",
			raw:  `{"name": "Pics", "images": ["", "https://img/s"]}`,
			want: Track{Title: "Pics", ImageURL: "https://img/s"},
		},
		{
			name: "single image fallback",
			raw:  `{"name": "Cover", "cover": {"url": "https://img/c"}}`,
			want: Track{Title: "Cover", ImageURL: "https://img/c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(decode(t, tt.raw)))
		})
	}
}

func TestNormalizeNeverPanics(t *testing.T) {
	inputs := []any{
		nil,
		42.0,
		"string",
		true,
		[]any{1.0, "x"},
		map[string]any{},
		map[string]any{"unknown": "field"},
		map[string]any{"artists": "not a list", "album": []any{}, "images": map[string]any{}},
		map[string]any{"track": "scalar", "data": 3.0},
		map[string]any{"artists": []any{nil, 1.0, map[string]any{"name": 5.0}}},
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := Normalize(in)
			assert.Equal(t, Track{}, got)
			assert.False(t, got.Requestable())
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want *int64
	}{
		{`{"duration_ms": 1500}`, int64p(1500)},
		{`{"duration_ms": "2500"}`, int64p(2500)},
		{`{"durationMs": 99}`, int64p(99)},
		{`{"duration": 3}`, int64p(3000)},
		{`{"duration": 1.5}`, int64p(1500)},
		{`{"duration_ms": -1}`, nil},
		{`{"duration_ms": "soon"}`, nil},
		{`{"duration": {"totalMilliseconds": 5}}`, nil},
		{`{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(decode(t, tt.raw)).DurationMs)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "--:--", FormatDuration(nil))
	assert.Equal(t, "3:35", FormatDuration(int64p(215000)))
	assert.Equal(t, "0:05", FormatDuration(int64p(5999)))
	assert.Equal(t, "61:01", FormatDuration(int64p(3661000)))
}
