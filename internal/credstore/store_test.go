package credstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewWithVault(t.TempDir(), NewMemVault())
}

func TestTokenRoundTrip(t *testing.T) {
	store := newTestStore(t)

	assert.Empty(t, store.Token(), "fresh store should have no token")

	require.NoError(t, store.SetToken("abc.def.ghi"))
	assert.Equal(t, "abc.def.ghi", store.Token())

	require.NoError(t, store.ClearToken())
	assert.Empty(t, store.Token())

	// Clearing an already-empty store is harmless
	require.NoError(t, store.ClearToken())
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)

	assert.Nil(t, store.User(), "fresh store should have no user")

	profile := &UserProfile{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  Role{Value: "manager"},
	}
	require.NoError(t, store.SetUser(profile))

	got := store.User()
	require.NotNil(t, got)
	assert.Equal(t, "manager", got.Role.Value)
	assert.Equal(t, "ada@example.com", got.Email)

	require.NoError(t, store.ClearUser())
	assert.Nil(t, store.User())
}

func TestUserCorruptedFileDegradesToNil(t *testing.T) {
	dir := t.TempDir()
	store := NewWithVault(dir, NewMemVault())

	require.NoError(t, os.WriteFile(filepath.Join(dir, userFileName), []byte("{not json"), 0600))
	assert.Nil(t, store.User())
}

func TestTokenAndUserAreIndependent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetToken("tok"))
	assert.Nil(t, store.User(), "token present without user must not synthesize a profile")

	require.NoError(t, store.ClearToken())
	require.NoError(t, store.SetUser(&UserProfile{Role: Role{Value: "admin"}}))
	assert.Empty(t, store.Token())
	assert.NotNil(t, store.User())
}

func TestFiltersFallback(t *testing.T) {
	store := newTestStore(t)

	fallback := map[string]any{"status": "new"}
	assert.Equal(t, fallback, store.Filters(fallback))

	// Corrupted file falls back too, never returns nil
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), filtersFileName), []byte("]["), 0600))
	assert.Equal(t, fallback, store.Filters(fallback))
}

func TestFiltersSetMergeClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetFilters(map[string]any{"status": "new", "owner": "ada"}))
	require.NoError(t, store.MergeFilters(map[string]any{"status": "won", "source": "csv"}))

	filters := store.Filters(map[string]any{})
	assert.Equal(t, "won", filters["status"], "merge is last-write-wins per key")
	assert.Equal(t, "ada", filters["owner"], "untouched keys survive a merge")
	assert.Equal(t, "csv", filters["source"])

	require.NoError(t, store.ClearFilters())
	assert.Equal(t, map[string]any{}, store.Filters(map[string]any{}))
}

func TestSignalLogoutChangesMarker(t *testing.T) {
	store := newTestStore(t)

	assert.Empty(t, store.LogoutMarker())

	first, err := store.SignalLogout()
	require.NoError(t, err)
	assert.Equal(t, first, store.LogoutMarker())

	second, err := store.SignalLogout()
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "every logout must produce a new marker")
	assert.Equal(t, second, store.LogoutMarker())
}
