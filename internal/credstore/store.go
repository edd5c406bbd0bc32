// Package credstore provides durable per-user storage for the auth token,
// the decoded user profile, persisted UI filters, and the shared logout
// signal marker observed by sibling client processes.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "leadgrid"
	keyringTokenKey = "auth-token"

	userFileName    = "user.json"
	filtersFileName = "filters.json"
	// SignalFileName is the shared logout-signal key. Other processes watch
	// this exact name for changes, so it must never be renamed casually.
	SignalFileName = "logout-signal"
)

// ErrNotFound is returned by Vault implementations when a key is absent.
var ErrNotFound = errors.New("credstore: not found")

// Vault abstracts the OS keychain/credential manager so tests can swap in
// an in-memory implementation.
type Vault interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// keyringVault stores secrets in the OS keychain via go-keyring.
type keyringVault struct{}

func (keyringVault) Set(key, value string) error {
	if err := keyring.Set(keyringService, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (keyringVault) Get(key string) (string, error) {
	value, err := keyring.Get(keyringService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return value, nil
}

func (keyringVault) Delete(key string) error {
	if err := keyring.Delete(keyringService, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

// Role carries the principal's role as delivered by the API.
type Role struct {
	Value string `json:"value"`
}

// UserProfile is the decoded principal stored alongside the token. The two
// are written independently; either may be present without the other.
type UserProfile struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// Store is the durable credential store. The token lives in the Vault;
// profile, filters, and the logout marker live as files under dir so that
// sibling processes share them and can watch for changes.
type Store struct {
	dir   string
	vault Vault
}

// New creates a store rooted at dir, backed by the OS keyring.
func New(dir string) *Store {
	return NewWithVault(dir, keyringVault{})
}

// NewWithVault creates a store with a custom token vault (used in tests).
func NewWithVault(dir string, vault Vault) *Store {
	return &Store{dir: dir, vault: vault}
}

// DefaultDir returns the default state directory (~/.config/leadgrid).
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "leadgrid"), nil
}

// Dir returns the state directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

// Token returns the stored auth token, or "" when absent or unreadable.
// Absence means "not authenticated".
func (s *Store) Token() string {
	token, err := s.vault.Get(keyringTokenKey)
	if err != nil {
		return ""
	}
	return token
}

// SetToken persists the auth token.
func (s *Store) SetToken(token string) error {
	return s.vault.Set(keyringTokenKey, token)
}

// ClearToken removes the auth token. Clearing an absent token is a no-op.
func (s *Store) ClearToken() error {
	return s.vault.Delete(keyringTokenKey)
}

// User returns the stored profile, or nil when absent or unparseable.
// A corrupted file degrades to nil rather than surfacing an error.
func (s *Store) User() *UserProfile {
	data, err := os.ReadFile(filepath.Join(s.dir, userFileName))
	if err != nil {
		return nil
	}
	var profile UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil
	}
	return &profile
}

// SetUser persists the user profile.
func (s *Store) SetUser(profile *UserProfile) error {
	return s.writeJSON(userFileName, profile)
}

// ClearUser removes the stored profile.
func (s *Store) ClearUser() error {
	return s.remove(userFileName)
}

// Filters returns the persisted filter bag, or fallback when the file is
// absent or unparseable. It never returns nil when fallback is non-nil.
func (s *Store) Filters(fallback map[string]any) map[string]any {
	data, err := os.ReadFile(filepath.Join(s.dir, filtersFileName))
	if err != nil {
		return fallback
	}
	var filters map[string]any
	if err := json.Unmarshal(data, &filters); err != nil || filters == nil {
		return fallback
	}
	return filters
}

// SetFilters replaces the persisted filter bag.
func (s *Store) SetFilters(filters map[string]any) error {
	return s.writeJSON(filtersFileName, filters)
}

// MergeFilters shallow-merges partial over the current bag, last write wins
// per key.
func (s *Store) MergeFilters(partial map[string]any) error {
	merged := s.Filters(map[string]any{})
	for k, v := range partial {
		merged[k] = v
	}
	return s.SetFilters(merged)
}

// ClearFilters removes the persisted filter bag.
func (s *Store) ClearFilters() error {
	return s.remove(filtersFileName)
}

// SignalLogout writes a fresh marker to the shared logout-signal file and
// returns it. ULIDs are time-ordered and unique, so every logout produces
// an observable change even when two logouts land in the same millisecond.
func (s *Store) SignalLogout() (string, error) {
	marker := ulid.Make().String()
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, SignalFileName)
	if err := os.WriteFile(path, []byte(marker), 0600); err != nil {
		return "", fmt.Errorf("failed to write logout signal: %w", err)
	}
	return marker, nil
}

// LogoutMarker returns the current logout-signal marker, or "" when none
// has ever been written.
func (s *Store) LogoutMarker() string {
	data, err := os.ReadFile(filepath.Join(s.dir, SignalFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *Store) remove(name string) error {
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
