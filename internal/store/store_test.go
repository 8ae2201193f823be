package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
)

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "data")),
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			doc := codec.Document{
				"paused": false,
				"score":  3,
				"nested": codec.Document{"id": "P1"},
			}
			require.NoError(t, st.Save("games", "C1", doc))

			got, err := st.Get("games", "C1", nil)
			require.NoError(t, err)
			assert.Equal(t, false, codec.Bool(got, "paused"))
			assert.Equal(t, 3, codec.Int(got, "score"))
			assert.Equal(t, "P1", codec.String(codec.Child(got, "nested"), "id"))
		})
	}
}

func TestStoreGetFallback(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fallback := codec.Document{"fresh": true}
			got, err := st.Get("games", "missing", fallback)
			require.NoError(t, err)
			assert.Equal(t, fallback, got)

			got, err = st.Get("games", "missing", nil)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStoreDeleteAndList(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save("games", "C1", codec.Document{"a": 1}))
			require.NoError(t, st.Save("games", "C2", codec.Document{"b": 2}))

			names, err := st.List("games")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"C1", "C2"}, names)

			require.NoError(t, st.Delete("games", "C1"))
			names, err = st.List("games")
			require.NoError(t, err)
			assert.Equal(t, []string{"C2"}, names)

			// Deleting a missing document is a no-op.
			require.NoError(t, st.Delete("games", "C1"))
		})
	}
}

func TestStoreListEmptyCollection(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			names, err := st.List("nothing")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestMemoryStoreIsolatesStoredDocuments(t *testing.T) {
	st := NewMemoryStore()
	doc := codec.Document{"score": 1}
	require.NoError(t, st.Save("games", "C1", doc))

	// Mutating the original must not leak into the store.
	doc["score"] = 99
	got, err := st.Get("games", "C1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, codec.Int(got, "score"))

	// Mutating a read result must not leak either.
	got["score"] = 77
	again, err := st.Get("games", "C1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, codec.Int(again, "score"))
}
