// Package storage provides the key-value persistence collaborator used for
// the settings blob, the sessions blob, and the single-slot draft string.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"neuralchat/internal/logger"
)

// Store is a key-value string storage. A missing key reads as the empty
// string rather than an error; interpreting blob contents (and tolerating
// corruption) is the caller's concern.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

// Well-known storage keys.
const (
	KeySettings = "settings"
	KeySessions = "sessions"
	KeyDraft    = "draft"
)

// FileStore persists each key as a separate file under a base directory.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a FileStore rooted at baseDir, creating the
// directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Get reads the value stored under key, or "" if the key is absent.
func (f *FileStore) Get(key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return string(data), nil
}

// Set writes value under key, replacing any previous value.
func (f *FileStore) Set(key, value string) error {
	if err := os.WriteFile(f.path(key), []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Remove deletes the value stored under key. Removing an absent key is not
// an error.
func (f *FileStore) Remove(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

// Clear deletes every stored key.
func (f *FileStore) Clear() error {
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return fmt.Errorf("failed to list storage directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(f.baseDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clear key %q: %w", entry.Name(), err)
		}
	}
	logger.Debug("Storage cleared", "dir", f.baseDir)
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.baseDir, key+".json")
}

// MemoryStore is an in-memory Store used in tests and as a fallback when no
// data directory is available.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get reads the value stored under key, or "" if the key is absent.
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// Set writes value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes the value stored under key.
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Clear deletes every stored key.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}
