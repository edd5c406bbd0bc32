package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid-dev/leadgrid/internal/broadcast"
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

func init() {
	// The sub-second expiry margins in these tests need sub-second exp
	// precision; the library default truncates NumericDates to whole seconds.
	jwt.TimePrecision = time.Millisecond
}

func mintToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": float64(expiry.UnixMilli()) / 1000})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestManager(t *testing.T) (*Manager, *credstore.Store) {
	t.Helper()
	store := credstore.NewWithVault(t.TempDir(), credstore.NewMemVault())
	clock := tokenclock.New(store)
	return New(store, clock, zerolog.Nop()), store
}

func seedSession(t *testing.T, store *credstore.Store, expiry time.Time) {
	t.Helper()
	require.NoError(t, store.SetToken(mintToken(t, expiry)))
	require.NoError(t, store.SetUser(&credstore.UserProfile{Role: credstore.Role{Value: "admin"}}))
	require.NoError(t, store.SetFilters(map[string]any{"status": "new"}))
}

func assertCleared(t *testing.T, store *credstore.Store) {
	t.Helper()
	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())
	assert.Equal(t, map[string]any{}, store.Filters(map[string]any{}))
}

func TestInitWithExpiredTokenLogsOutImmediately(t *testing.T) {
	mgr, store := newTestManager(t)
	seedSession(t, store, time.Now().Add(-time.Minute))

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })

	assert.Equal(t, int32(1), fired.Load())
	assertCleared(t, store)
	assert.NotEmpty(t, store.LogoutMarker())
}

func TestInitWithoutTokenLogsOut(t *testing.T) {
	mgr, store := newTestManager(t)

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })

	// Nothing to schedule against, so the session ends right away.
	// Clearing an already-empty store is harmless.
	assert.Equal(t, int32(1), fired.Load())
	assertCleared(t, store)
}

func TestTimerFiresLogoutOnce(t *testing.T) {
	mgr, store := newTestManager(t)
	seedSession(t, store, time.Now().Add(tokenclock.DefaultSkew+250*time.Millisecond))

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })

	assert.Equal(t, int32(0), fired.Load(), "timer must not fire before the skew-adjusted expiry")

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	assertCleared(t, store)

	// No stray second fire
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestRearmLeavesSingleLiveTimer(t *testing.T) {
	mgr, store := newTestManager(t)
	seedSession(t, store, time.Now().Add(tokenclock.DefaultSkew+300*time.Millisecond))

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })
	for i := 0; i < 5; i++ {
		mgr.ArmTimer()
	}

	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "re-arming must cancel the previous timer")
}

func TestLogoutClearsEverythingAndChangesMarker(t *testing.T) {
	mgr, store := newTestManager(t)
	seedSession(t, store, time.Now().Add(time.Hour))

	before, err := store.SignalLogout()
	require.NoError(t, err)

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })
	mgr.Logout()

	assertCleared(t, store)
	assert.NotEqual(t, before, store.LogoutMarker())
	assert.GreaterOrEqual(t, fired.Load(), int32(1))

	// Logging out twice in a row is safe
	marker := store.LogoutMarker()
	mgr.Logout()
	assert.NotEqual(t, marker, store.LogoutMarker())
}

func TestForeignLogoutClearsWithoutResignaling(t *testing.T) {
	store := credstore.NewWithVault(t.TempDir(), credstore.NewMemVault())
	clock := tokenclock.New(store)
	mgr := New(store, clock, zerolog.Nop())

	watcher, err := broadcast.NewFileWatcher(store.Dir())
	require.NoError(t, err)
	mgr.SetBroadcast(watcher, nil)
	defer mgr.Close()

	seedSession(t, store, time.Now().Add(time.Hour))

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })

	// Another process over the same state directory logs out
	foreign := credstore.NewWithVault(store.Dir(), credstore.NewMemVault())
	marker, err := foreign.SignalLogout()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	assertCleared(t, store)

	// The receiving side must not write a fresh signal, or every logout
	// would ping-pong between processes forever.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, marker, store.LogoutMarker())
	assert.Equal(t, int32(1), fired.Load())
}

func TestOwnSignalEchoIsIgnored(t *testing.T) {
	store := credstore.NewWithVault(t.TempDir(), credstore.NewMemVault())
	clock := tokenclock.New(store)
	mgr := New(store, clock, zerolog.Nop())

	watcher, err := broadcast.NewFileWatcher(store.Dir())
	require.NoError(t, err)
	mgr.SetBroadcast(watcher, nil)
	defer mgr.Close()

	seedSession(t, store, time.Now().Add(time.Hour))

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })
	mgr.Logout()

	// The file watcher sees our own write too; the marker filter must
	// drop it instead of invoking the callback a second time.
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDoubleInitRegistersListenerOnce(t *testing.T) {
	store := credstore.NewWithVault(t.TempDir(), credstore.NewMemVault())
	clock := tokenclock.New(store)
	mgr := New(store, clock, zerolog.Nop())

	watcher, err := broadcast.NewFileWatcher(store.Dir())
	require.NoError(t, err)
	mgr.SetBroadcast(watcher, nil)
	defer mgr.Close()

	seedSession(t, store, time.Now().Add(time.Hour))

	var fired atomic.Int32
	mgr.Init(func() { fired.Add(1) })
	mgr.Init(func() { fired.Add(1) })

	foreign := credstore.NewWithVault(store.Dir(), credstore.NewMemVault())
	_, err = foreign.SignalLogout()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "a second Init must not duplicate the listener")
}
