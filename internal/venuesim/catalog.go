package venuesim

import (
	"strings"
)

type song struct {
	id       string
	title    string
	artists  []string
	image    string
	duration int64 // milliseconds
}

var songs = []song{
	{"3n3Ppam7vgaVa1iaRUc9Lp", "Mr. Brightside", []string{"The Killers"}, "https://i.scdn.co/image/brightside", 222075},
	{"0VjIjW4GlUZAMYd2vXMi3b", "Blinding Lights", []string{"The Weeknd"}, "https://i.scdn.co/image/blinding", 200040},
	{"7qiZfU4dY1lWllzX7mPBI3", "Shape of You", []string{"Ed Sheeran"}, "https://i.scdn.co/image/shape", 233712},
	{"3KkXRkHbMCARz0aVfEt68P", "Sunflower", []string{"Post Malone", "Swae Lee"}, "https://i.scdn.co/image/sunflower", 158040},
	{"5ChkMS8OtdzJeqyybCc9R5", "Billie Jean", []string{"Michael Jackson"}, "https://i.scdn.co/image/billie", 293826},
	{"2Fxmhks0bxGSBdJ92vM42m", "bad guy", []string{"Billie Eilish"}, "https://i.scdn.co/image/badguy", 194087},
	{"6habFhsOp2NvshLv26DqMb", "Despacito", []string{"Luis Fonsi", "Daddy Yankee"}, "https://i.scdn.co/image/despacito", 229360},
	{"1mea3bSkSGXuIRvnydlB5b", "Viva La Vida", []string{"Coldplay"}, "https://i.scdn.co/image/viva", 242373},
	{"4u7EnebtmKWzUH433cf5Qv", "Bohemian Rhapsody", []string{"Queen"}, "https://i.scdn.co/image/bohemian", 354320},
	{"3AJwUDP919kvQ9QcozQPxg", "Yellow", []string{"Coldplay"}, "https://i.scdn.co/image/yellow", 266773},
	{"1lDWb6b6ieDQ2xT7ewTC3G", "Moonlight", []string{"Ariana Grande"}, "https://i.scdn.co/image/moonlight", 202093},
	{"6vWEAOUSxohKxhp0K1BsxL", "Moon River", []string{"Audrey Hepburn"}, "https://i.scdn.co/image/moonriver", 163000},
	{"5eqK0tbzUPo2SoeZsov04s", "Fly Me to the Moon", []string{"Frank Sinatra"}, "https://i.scdn.co/image/flyme", 147000},
	{"0nrRP2bk19rLc0orkWPQk2", "Wake Me Up", []string{"Avicii"}, "https://i.scdn.co/image/wakeme", 247427},
	{"2takcwOaAZWiXQijPHIx7B", "Time After Time", []string{"Cyndi Lauper"}, "https://i.scdn.co/image/timeafter", 241000},
	{"7ouMYWpwJ422jRcDASZB7P", "Knights of Cydonia", []string{"Muse"}, "https://i.scdn.co/image/knights", 366213},
}

// Search returns catalog records matching q in title or artist. Records
// rotate between the shapes real providers return: flat tracks, records
// wrapped in "data" with nested artist and cover-art lists, and bare records
// that carry only an id.
func Search(q string) []any {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []any{}
	}

	out := []any{}
	for _, s := range songs {
		if !s.matches(q) {
			continue
		}
		switch len(out) % 3 {
		case 0:
			out = append(out, s.flat())
		case 1:
			out = append(out, s.partner())
		default:
			out = append(out, s.bare())
		}
	}
	return out
}

func (s song) matches(q string) bool {
	if strings.Contains(strings.ToLower(s.title), q) {
		return true
	}
	for _, a := range s.artists {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

func (s song) flat() map[string]any {
	artists := make([]any, len(s.artists))
	for i, a := range s.artists {
		artists[i] = map[string]any{"name": a}
	}
	return map[string]any{
		"id":            s.id,
		"uri":           "spotify:track:" + s.id,
		"name":          s.title,
		"artists":       artists,
		"album":         map[string]any{"images": []any{map[string]any{"url": s.image, "width": 640}}},
		"external_urls": map[string]any{"spotify": "https://open.spotify.com/track/" + s.id},
		"duration_ms":   s.duration,
	}
}

func (s song) partner() map[string]any {
	items := make([]any, len(s.artists))
	for i, a := range s.artists {
		items[i] = map[string]any{"profile": map[string]any{"name": a}}
	}
	return map[string]any{
		"data": map[string]any{
			"uri":          "spotify:track:" + s.id,
			"name":         s.title,
			"artists":      map[string]any{"items": items},
			"albumOfTrack": map[string]any{"coverArt": map[string]any{"sources": []any{map[string]any{"url": s.image}}}},
			"duration":     map[string]any{"totalMilliseconds": s.duration},
		},
	}
}

func (s song) bare() map[string]any {
	return map[string]any{
		"id":       s.id,
		"title":    s.title,
		"artist":   strings.Join(s.artists, ", "),
		"duration": s.duration / 1000,
	}
}
