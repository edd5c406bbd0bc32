package credstore

import "sync"

// MemVault is an in-memory Vault. It backs tests and headless environments
// where no OS keyring is reachable (e.g. CI containers without dbus).
type MemVault struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewMemVault creates an empty in-memory vault.
func NewMemVault() *MemVault {
	return &MemVault{secrets: make(map[string]string)}
}

func (v *MemVault) Set(key, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.secrets[key] = value
	return nil
}

func (v *MemVault) Get(key string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	value, ok := v.secrets[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (v *MemVault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.secrets, key)
	return nil
}
