package search

import "venue-client/internal/track"

var envelopes = [][]string{
	{"items"},
	{"tracks", "items"},
	{"tracks"},
	{"results"},
	{"data", "tracks", "items"},
}

// ExtractItems finds the result list in a search response. The first
// envelope present wins; a present envelope that is not a list yields no
// items.
func ExtractItems(doc any) []any {
	if list, ok := doc.([]any); ok {
		return list
	}
	for _, path := range envelopes {
		v := lookup(doc, path...)
		if v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return nil
		}
		return list
	}
	return nil
}

// Normalize extracts up to limit items from doc as tracks.
func Normalize(doc any, limit int) []track.Track {
	items := ExtractItems(doc)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	tracks := make([]track.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, track.Normalize(item))
	}
	return tracks
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
