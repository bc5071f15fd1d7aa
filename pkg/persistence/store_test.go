package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oos/pkg/clarify"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLoadSession(t *testing.T) {
	store := testStore(t)

	s, err := clarify.NewSession("build me a thing")
	require.NoError(t, err)
	snap := s.Snapshot()

	require.NoError(t, store.SaveSession(snap))

	loaded, err := store.LoadSession(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, loaded.ID)
	assert.Equal(t, snap.State, loaded.State)
	assert.Equal(t, snap.RawRequest, loaded.RawRequest)
	assert.Equal(t, snap.Questions, loaded.Questions)

	// The loaded snapshot restores to a working session.
	restored, err := clarify.Restore(loaded)
	require.NoError(t, err)
	assert.Equal(t, clarify.StateAwaitingAnswers, restored.State())
}

func TestLoadMissingSession(t *testing.T) {
	store := testStore(t)

	_, err := store.LoadSession("does-not-exist")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveSessionUpserts(t *testing.T) {
	store := testStore(t)

	s, err := clarify.NewSession("build me a thing")
	require.NoError(t, err)

	require.NoError(t, store.SaveSession(s.Snapshot()))
	require.NoError(t, s.SubmitAnswers(map[int]string{0: "small"}))
	require.NoError(t, store.SaveSession(s.Snapshot()))

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1, "same id must update, not duplicate")

	loaded, err := store.LoadSession(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Round)
}

func TestListSessions(t *testing.T) {
	store := testStore(t)

	first, err := clarify.NewSession("first request")
	require.NoError(t, err)
	second, err := clarify.NewSession("second request")
	require.NoError(t, err)

	require.NoError(t, store.SaveSession(first.Snapshot()))
	require.NoError(t, store.SaveSession(second.Snapshot()))

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestDeleteSession(t *testing.T) {
	store := testStore(t)

	s, err := clarify.NewSession("to be deleted")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(s.Snapshot()))

	require.NoError(t, store.DeleteSession(s.ID()))
	_, err = store.LoadSession(s.ID())
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting again is a no-op, not an error.
	require.NoError(t, store.DeleteSession(s.ID()))
}

func TestPruneTerminal(t *testing.T) {
	store := testStore(t)

	pending, err := clarify.NewSession("still pending work")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(pending.Snapshot()))

	done, err := clarify.NewSession("cancel me")
	require.NoError(t, err)
	require.NoError(t, done.Cancel())
	require.NoError(t, store.SaveSession(done.Snapshot()))

	count, err := store.PruneTerminal()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, pending.ID(), sessions[0].ID)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sessions.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
