package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SetGetRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeySettings, `{"theme":"dark"}`))

	value, err := store.Get(KeySettings)
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"dark"}`, value)
}

func TestFileStore_GetMissingKeyReturnsEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	value, err := store.Get("nothing-here")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestFileStore_OverwriteReplacesValue(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyDraft, "first"))
	require.NoError(t, store.Set(KeyDraft, "second"))

	value, err := store.Get(KeyDraft)
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestFileStore_RemoveIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyDraft, "pending message"))
	require.NoError(t, store.Remove(KeyDraft))
	require.NoError(t, store.Remove(KeyDraft))

	value, err := store.Get(KeyDraft)
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestFileStore_Clear(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeySettings, "a"))
	require.NoError(t, store.Set(KeySessions, "b"))
	require.NoError(t, store.Clear())

	for _, key := range []string{KeySettings, KeySessions} {
		value, err := store.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "", value)
	}
}

func TestFileStore_CreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewFileStore(base)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeySettings, "x"))

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStore_WritesAreOwnerOnly(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeySessions, "private"))

	info, err := os.Stat(store.path(KeySessions))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()

	value, err := store.Get(KeyDraft)
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, store.Set(KeyDraft, "hello"))
	value, err = store.Get(KeyDraft)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)

	require.NoError(t, store.Remove(KeyDraft))
	value, err = store.Get(KeyDraft)
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestMemoryStore_Clear(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeySettings, "a"))
	require.NoError(t, store.Set(KeySessions, "b"))
	require.NoError(t, store.Clear())

	value, err := store.Get(KeySettings)
	require.NoError(t, err)
	assert.Equal(t, "", value)
}
