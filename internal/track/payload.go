package track

import (
	"regexp"
	"strings"

	"venue-client/internal/api"
	"venue-client/internal/identity"
)

// Placeholder stands in for an empty title or artist.
const Placeholder = "—"

var (
	uriPattern = regexp.MustCompile(`^spotify:track:[A-Za-z0-9]+$`)
	idPattern  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	urlPattern = regexp.MustCompile(`^https?://open\.spotify\.com/(intl-[a-z-]+/)?track/[A-Za-z0-9]+`)
)

// BuildPayload assembles the request body for t. At most one track reference
// is set: a well-formed URI, else a bare id, else a track page URL, else the
// id salvaged from a malformed URI. A URI that Normalize derived from the id
// does not count as a URI.
func BuildPayload(t Track, id identity.Identity) api.RequestPayload {
	p := api.RequestPayload{
		SessionID: id.SessionID,
		TableID:   id.TableID,
		Title:     orPlaceholder(t.Title),
		Artist:    orPlaceholder(t.ArtistNames),
		ImageURL:  t.ImageURL,
	}

	switch {
	case !t.SyntheticURI && uriPattern.MatchString(t.URI):
		p.TrackURI = t.URI
	case idPattern.MatchString(t.ID):
		p.TrackID = t.ID
	case urlPattern.MatchString(t.ExternalURL):
		p.TrackURL = t.ExternalURL
	case strings.HasPrefix(t.URI, URIPrefix):
		if seg := strings.TrimSpace(t.URI[strings.LastIndex(t.URI, ":")+1:]); seg != "" {
			p.TrackID = seg
		}
	}

	return p
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
