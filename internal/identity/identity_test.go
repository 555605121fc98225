package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(map[string]string{KeySessionID: "stored-s", KeyTableID: "stored-t"}))
	store := NewStore(kv)

	tests := []struct {
		name     string
		session  string
		table    string
		expected Identity
	}{
		{"explicit wins", "S1", "T1", Identity{SessionID: "S1", TableID: "T1"}},
		{"stored fallback", "", "", Identity{SessionID: "stored-s", TableID: "stored-t"}},
		{"mixed", "S2", "", Identity{SessionID: "S2", TableID: "stored-t"}},
		{"whitespace is absent", "  ", "", Identity{SessionID: "stored-s", TableID: "stored-t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, store.Resolve(tt.session, tt.table))
		})
	}
}

func TestResolveAbsent(t *testing.T) {
	store := NewStore(NewMemoryKV())
	id := store.Current()
	assert.Equal(t, Identity{}, id)
	assert.False(t, id.HasSession())
}

func TestSaveAndClear(t *testing.T) {
	store := NewStore(NewMemoryKV())

	require.NoError(t, store.Save(Identity{SessionID: "S1", TableID: "T1"}))
	assert.Equal(t, Identity{SessionID: "S1", TableID: "T1"}, store.Current())

	require.NoError(t, store.Save(Identity{SessionID: "S2"}))
	assert.Equal(t, Identity{SessionID: "S2"}, store.Current())

	require.NoError(t, store.Clear())
	assert.Equal(t, Identity{}, store.Current())
}

type failingKV struct{ *MemoryKV }

func (failingKV) Set(map[string]string) error { return errors.New("disk full") }
func (failingKV) Delete(...string) error      { return errors.New("disk full") }

func TestStoreWrapsErrors(t *testing.T) {
	store := NewStore(failingKV{NewMemoryKV()})
	assert.ErrorContains(t, store.Save(Identity{SessionID: "S1"}), "save identity")
	assert.ErrorContains(t, store.Clear(), "clear identity")
}
