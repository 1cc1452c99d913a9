package correction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/preflight/internal/filelock"
)

// MemoryFileName is the mistake store file within the memory directory.
const MemoryFileName = "reflexion.json"

// MemoryStore persists the mistake memory as JSON. Updates are serialized
// with a file lock and written atomically, so concurrent engines (or
// processes) never clobber each other's learning.
type MemoryStore struct {
	path string
}

// NewMemoryStore creates a store rooted at the given memory directory.
func NewMemoryStore(dir string) *MemoryStore {
	return &MemoryStore{path: filepath.Join(dir, MemoryFileName)}
}

// Path returns the store's file path.
func (s *MemoryStore) Path() string {
	return s.path
}

// Load reads the memory from disk. A missing file yields an empty skeleton
// without error; a corrupt file is an error.
func (s *MemoryStore) Load() (*Memory, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mistake memory: %w", err)
	}

	var m Memory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mistake memory %s: %w", s.path, err)
	}
	if m.Mistakes == nil {
		m.Mistakes = []FailureEntry{}
	}
	if m.PreventionRules == nil {
		m.PreventionRules = []string{}
	}
	return &m, nil
}

// Save writes the memory to disk atomically.
func (s *MemoryStore) Save(m *Memory) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mistake memory: %w", err)
	}
	if err := filelock.AtomicWrite(s.path, data); err != nil {
		return fmt.Errorf("failed to write mistake memory: %w", err)
	}
	return nil
}

// Update runs fn inside a locked read-modify-write cycle. fn receives the
// current memory and mutates it in place; the result is written back
// atomically before the lock is released.
func (s *MemoryStore) Update(fn func(*Memory) error) error {
	return filelock.WithLock(s.path, func() error {
		m, err := s.Load()
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		return s.Save(m)
	})
}
