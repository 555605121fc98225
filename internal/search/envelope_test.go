package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractItems(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"items", `{"items":[{"id":"a"},{"id":"b"}]}`, 2},
		{"tracks.items", `{"tracks":{"items":[{"id":"a"}]}}`, 1},
		{"tracks array", `{"tracks":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, 3},
		{"results", `{"results":[{"id":"a"}]}`, 1},
		{"data.tracks.items", `{"data":{"tracks":{"items":[{"data":{"uri":"spotify:track:x"}}]}}}`, 1},
		{"first present wins", `{"items":[{"id":"a"}],"results":[{"id":"b"},{"id":"c"}]}`, 1},
		{"present but not a list", `{"items":{"id":"a"},"results":[{"id":"b"}]}`, 0},
		{"bare list", `[{"id":"a"}]`, 1},
		{"nothing", `{"total":0}`, 0},
		{"scalar", `"oops"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc any
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))
			assert.Len(t, ExtractItems(doc), tt.want)
		})
	}
}

func TestNormalizeMixedShapes(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"items":[
		{"uri":"spotify:track:A1","name":"Moon River","artists":[{"name":"Frank"}]},
		{"id":"B2","title":"Moonlight"}
	]}`), &doc))

	tracks := Normalize(doc, 12)
	require.Len(t, tracks, 2)
	assert.Equal(t, "spotify:track:A1", tracks[0].URI)
	assert.Equal(t, "Frank", tracks[0].ArtistNames)
	assert.Equal(t, "B2", tracks[1].ID)
	assert.True(t, tracks[1].Requestable())
}
