package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, store Store) {
	t.Helper()
	_, err := store.Load()
	require.ErrorIs(t, err, ErrNoToken)

	sess := Session{Token: "tok-1", Mobile: "9876543210", CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(sess))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "9876543210", got.Mobile)
	assert.True(t, sess.CreatedAt.Equal(got.CreatedAt))

	sess.Token = "tok-2"
	require.NoError(t, store.Save(sess))
	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)

	require.NoError(t, store.Delete())
	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoToken)
	require.NoError(t, store.Delete(), "delete is idempotent")
}

func TestMemoryStore(t *testing.T) {
	roundTrip(t, &MemoryStore{})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	roundTrip(t, store)

	require.NoError(t, store.Save(Session{Token: "x"}))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "docman.db"))
	require.NoError(t, err)
	defer store.Close()
	roundTrip(t, store)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		backend string
		prefix  string
	}{
		{BackendFile, "file:"},
		{BackendMemory, "memory"},
		{BackendSQLite, "sqlite:"},
		{BackendKeyring, "keyring:docman-test"},
	} {
		s, err := Open(tc.backend, dir, "docman-test")
		require.NoError(t, err, tc.backend)
		assert.Contains(t, s.Name(), tc.prefix)
		if c, ok := s.(*SQLiteStore); ok {
			_ = c.Close()
		}
	}

	_, err := Open("vault", dir, "")
	require.Error(t, err)
}
