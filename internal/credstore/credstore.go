// Package credstore persists per-session credential snapshots as key-scoped
// JSON sidecar files. The protocol library's own store holds the actual key
// material; the sidecar is what the control plane and CLI read.
package credstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tupanlabs/zapgate/internal/wa"
)

// Store reads and writes credential snapshots under <dir>/sessions/.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "sessions")}
}

// Save overwrites the snapshot for key. Called on every credential-update
// event; failures are logged, not returned, since credential persistence must
// never fail a lifecycle transition.
func (s *Store) Save(key string, creds wa.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		slog.Error("credstore: create dir", "error", err)
		return
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		slog.Error("credstore: marshal snapshot", "session", key, "error", err)
		return
	}
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		slog.Error("credstore: write snapshot", "session", key, "error", err)
	}
}

// Load returns the snapshot for key, or false if none exists.
func (s *Store) Load(key string) (wa.Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return wa.Credentials{}, false
	}
	var creds wa.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		slog.Warn("credstore: corrupt snapshot", "session", key, "error", err)
		return wa.Credentials{}, false
	}
	return creds, true
}

// Delete removes the snapshot for key. Used on terminal logout. Missing
// files are not an error.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		slog.Error("credstore: delete snapshot", "session", key, "error", err)
	}
}

// List returns the keys of all stored snapshots.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	return keys, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
