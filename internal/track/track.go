// Package track turns heterogeneous catalog search records into one canonical
// shape and builds song request payloads from it.
package track

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// URIPrefix is the provider scheme for track URIs.
const URIPrefix = "spotify:track:"

// Track is a provider-agnostic search result.
type Track struct {
	ID          string
	URI         string
	ExternalURL string
	Title       string
	ArtistNames string
	ImageURL    string
	DurationMs  *int64

	// SyntheticURI is set when URI was derived from ID rather than read from
	// the record.
	SyntheticURI bool
}

// Requestable reports whether the track carries any reference the backend
// could resolve.
func (t Track) Requestable() bool {
	return t.ID != "" || t.URI != "" || t.ExternalURL != ""
}

// Normalize extracts a Track from a decoded JSON record. Records may be flat,
// wrapped in "track" or "data", or carry the partner catalog's nested artist
// and cover-art lists. Missing or malformed fields come back empty.
func Normalize(raw any) Track {
	var t Track

	t.ID = firstString(raw,
		[]string{"id"},
		[]string{"track", "id"},
		[]string{"data", "id"},
		[]string{"data", "uid"},
	)

	t.URI = firstString(raw,
		[]string{"uri"},
		[]string{"data", "uri"},
		[]string{"track", "uri"},
	)
	if t.URI == "" && t.ID != "" {
		t.URI = URIPrefix + t.ID
		t.SyntheticURI = true
	}

	t.ExternalURL = firstString(raw,
		[]string{"external_urls", "spotify"},
		[]string{"track", "external_urls", "spotify"},
		[]string{"externalUrl"},
		[]string{"data", "sharingInfo", "shareUrl"},
	)

	t.Title = firstString(raw,
		[]string{"name"},
		[]string{"title"},
		[]string{"data", "name"},
		[]string{"track", "name"},
		[]string{"track", "title"},
	)

	t.ArtistNames = artistNames(raw)
	t.ImageURL = imageURL(raw)
	t.DurationMs = durationMs(raw)

	return t
}

func artistNames(raw any) string {
	if s := joinNames(lookup(raw, "artists"), "name"); s != "" {
		return s
	}
	if s := joinNames(lookup(raw, "data", "artists", "items"), "profile", "name"); s != "" {
		return s
	}
	if s := joinNames(lookup(raw, "track", "artists"), "name"); s != "" {
		return s
	}
	return firstString(raw,
		[]string{"artist"},
		[]string{"artistNames"},
		[]string{"track", "artist"},
	)
}

func joinNames(list any, path ...string) string {
	items, ok := list.([]any)
	if !ok {
		return ""
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name := stringAt(item, path...); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func imageURL(raw any) string {
	lists := [][]string{
		{"album", "images"},
		{"track", "album", "images"},
		{"images"},
		{"data", "albumOfTrack", "coverArt", "sources"},
	}
	for _, path := range lists {
		if u := firstURL(lookup(raw, path...)); u != "" {
			return u
		}
	}

	singles := [][]string{
		{"imageUrl"},
		{"albumImageUrl"},
		{"cover"},
		{"cover", "url"},
		{"picture"},
	}
	for _, path := range singles {
		if u := stringAt(raw, path...); u != "" {
			return u
		}
	}
	return ""
}

// firstURL returns the first element of list that is a non-empty string or
// has a non-empty string "url".
func firstURL(list any) string {
	items, ok := list.([]any)
	if !ok {
		return ""
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		if u := stringAt(item, "url"); u != "" {
			return u
		}
	}
	return ""
}

func durationMs(raw any) *int64 {
	msPaths := [][]string{
		{"duration_ms"},
		{"track", "duration_ms"},
		{"data", "duration", "totalMilliseconds"},
		{"durationMs"},
	}
	for _, path := range msPaths {
		if v := lookup(raw, path...); v != nil {
			return toMillis(v, 1)
		}
	}
	if v := lookup(raw, "duration"); v != nil {
		return toMillis(v, 1000)
	}
	return nil
}

func toMillis(v any, scale float64) *int64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	f *= scale
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt64/2 {
		return nil
	}
	ms := int64(math.Round(f))
	return &ms
}

// FormatDuration renders m:ss, or --:-- when the duration is unknown.
func FormatDuration(ms *int64) string {
	if ms == nil || *ms < 0 {
		return "--:--"
	}
	total := *ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func lookup(v any, path ...string) any {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func stringAt(v any, path ...string) string {
	s, ok := lookup(v, path...).(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstString(raw any, paths ...[]string) string {
	for _, path := range paths {
		if s := stringAt(raw, path...); s != "" {
			return s
		}
	}
	return ""
}
