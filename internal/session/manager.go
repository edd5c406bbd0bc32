// Package session owns the single logical session for this client process:
// it schedules proactive auto-logout from the token's expiry, funnels every
// logout path through one clearing routine, and mirrors logouts arriving
// from sibling processes.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadgrid-dev/leadgrid/internal/broadcast"
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

const publishTimeout = 5 * time.Second

// Manager is the per-process session lifecycle owner. Construct exactly one
// per process at the application root and share it by reference.
type Manager struct {
	mu         sync.Mutex
	store      *credstore.Store
	clock      *tokenclock.Clock
	log        zerolog.Logger
	watcher    broadcast.Watcher
	publisher  broadcast.Publisher
	timer      *time.Timer
	onExpire   func()
	lastMarker string
	listenOnce sync.Once
}

// New creates a manager over store and clock. Call SetBroadcast before Init
// to enable cross-process logout propagation.
func New(store *credstore.Store, clock *tokenclock.Clock, log zerolog.Logger) *Manager {
	return &Manager{store: store, clock: clock, log: log}
}

// SetBroadcast wires the logout signal channel. watcher delivers foreign
// logouts, publisher (optional, may be nil) forwards local logouts beyond
// the machine. Must be called before Init.
func (m *Manager) SetBroadcast(watcher broadcast.Watcher, publisher broadcast.Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watcher = watcher
	m.publisher = publisher
}

// Init registers the expire callback and starts the session: an expired or
// undecodable stored token logs out immediately, a live one arms the
// auto-logout timer. The foreign-logout listener is started exactly once
// per process even if Init is called again; a repeat call only replaces
// the callback (single slot, no fan-out).
func (m *Manager) Init(onExpire func()) {
	m.mu.Lock()
	m.onExpire = onExpire
	watcher := m.watcher
	m.mu.Unlock()

	m.listenOnce.Do(func() {
		if watcher != nil {
			go m.listen(watcher)
		}
	})

	if m.clock.IsExpired() {
		m.log.Info().Msg("stored token is expired, logging out")
		m.Logout()
		return
	}
	m.ArmTimer()
}

// ArmTimer cancels any pending timer and schedules logout for the token's
// remaining skew-adjusted lifetime. It fails closed: when no valid expiry
// can be established, or none of the lifetime remains, it logs out
// synchronously instead of scheduling.
func (m *Manager) ArmTimer() {
	m.mu.Lock()
	m.stopTimerLocked()
	remaining, ok := m.clock.Remaining()
	if !ok || remaining <= 0 {
		m.mu.Unlock()
		m.log.Info().Msg("no usable token lifetime, logging out")
		m.Logout()
		return
	}
	m.timer = time.AfterFunc(remaining, func() {
		m.log.Info().Msg("session lifetime elapsed")
		m.Logout()
	})
	m.mu.Unlock()
	m.log.Debug().Dur("remaining", remaining).Msg("armed auto-logout timer")
}

// Logout is the single clearing routine every logout path funnels through:
// local timer expiry, a user-initiated logout, and immediate failure paths.
// It cancels the timer, wipes filters, token, and user, signals sibling
// processes, and only then invokes the expire callback, so the callback
// always observes a fully cleared store. Repeat calls are harmless.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.stopTimerLocked()

	if err := m.store.ClearFilters(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear filters")
	}
	if err := m.store.ClearToken(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear token")
	}
	if err := m.store.ClearUser(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear user profile")
	}

	marker, err := m.store.SignalLogout()
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to write logout signal")
	} else {
		m.lastMarker = marker
	}

	if m.publisher != nil && marker != "" {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := m.publisher.Publish(ctx, marker); err != nil {
			m.log.Warn().Err(err).Msg("failed to publish logout signal")
		}
		cancel()
	}

	callback := m.onExpire
	m.mu.Unlock()

	m.log.Info().Msg("logged out")
	if callback != nil {
		callback()
	}
}

// listen mirrors foreign logouts into this process. It runs for the rest
// of the process lifetime; there is no unsubscribe.
func (m *Manager) listen(watcher broadcast.Watcher) {
	for sig := range watcher.Events() {
		m.handleForeign(sig.Marker)
	}
}

// handleForeign performs the same clearing steps as Logout without writing
// a new signal, so one logout never ping-pongs between processes. Signals
// carrying the marker this manager last wrote are its own echo (file and
// Redis notifications both reach the originating process) and are dropped.
func (m *Manager) handleForeign(marker string) {
	m.mu.Lock()
	if marker != "" && marker == m.lastMarker {
		m.mu.Unlock()
		return
	}
	m.lastMarker = marker
	m.stopTimerLocked()

	if err := m.store.ClearFilters(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear filters")
	}
	if err := m.store.ClearToken(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear token")
	}
	if err := m.store.ClearUser(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear user profile")
	}

	callback := m.onExpire
	m.mu.Unlock()

	m.log.Info().Str("marker", marker).Msg("logout received from another process")
	if callback != nil {
		callback()
	}
}

// Close cancels the pending timer and closes the watcher, if any. Used on
// shutdown; a session that simply ends with the process does not need it.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.stopTimerLocked()
	watcher := m.watcher
	m.mu.Unlock()

	if watcher != nil {
		return watcher.Close()
	}
	return nil
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
