// internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Counters is the persisted fixture state.
type Counters struct {
	UnitID       uint32 `yaml:"unit_id"`
	SessionCount uint32 `yaml:"session_count"`
}

// Store keeps the unit and session counters in a YAML file.
// Every increment is written through before it is returned.
type Store struct {
	mu   sync.Mutex
	path string
	c    Counters
}

// Open loads path. A missing file starts both counters at zero.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path required")
	}

	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &s.c); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	return s, nil
}

// Memory returns a store that never persists. Counters restart on every boot.
func Memory() *Store {
	return &Store{}
}

// Counters returns a copy of the current counters.
func (s *Store) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

// BeginSession increments and persists the session counter.
func (s *Store) BeginSession() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.c.SessionCount++
	return s.c.SessionCount, s.save()
}

// NextUnit increments and persists the unit counter.
// The new value is returned even when persisting fails.
func (s *Store) NextUnit() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.c.UnitID++
	return s.c.UnitID, s.save()
}

// save replaces the file atomically. Caller holds mu.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	raw, err := yaml.Marshal(s.c)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	return nil
}
