package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrRevisionConflict is returned by Save when the document on disk has a
// different revision than the one the caller loaded. The caller must reload
// and retry its mutation.
var ErrRevisionConflict = errors.New("registry revision conflict")

// Store persists the registry as a single JSON document. There is no
// in-process lock: concurrent writers are serialized only by the revision
// counter, which is all a single-operator admin tool needs.
type Store struct {
	path string
}

// NewStore creates a store backed by the JSON document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted document, applies defaults for missing top-level
// fields and runs the schema migration chain. A missing file yields an empty
// registry at the current schema version.
func (s *Store) Load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	doc, err = Migrate(doc)
	if err != nil {
		return nil, err
	}

	reg, err := decodeMigrated(doc)
	if err != nil {
		return nil, err
	}

	applyDefaults(reg)
	return reg, nil
}

// Save atomically rewrites the whole document. The revision of the registry
// being saved must match the revision currently on disk; on success the
// stored revision is incremented.
func (s *Store) Save(reg *Registry) error {
	current, err := s.Load()
	if err != nil {
		return err
	}
	if current.Revision != reg.Revision {
		return fmt.Errorf("%w: stored revision %d, loaded revision %d", ErrRevisionConflict, current.Revision, reg.Revision)
	}

	reg.SchemaVersion = CurrentSchemaVersion
	reg.Revision++

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		reg.Revision--
		return fmt.Errorf("failed to serialize registry: %w", err)
	}

	if err := s.writeAtomic(data); err != nil {
		reg.Revision--
		return err
	}
	return nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place so readers never observe a partial document.
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close registry file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}

func applyDefaults(reg *Registry) {
	if reg.Environments == nil {
		reg.Environments = []Environment{}
	}
	if reg.Applications == nil {
		reg.Applications = []Application{}
	}
	if reg.Hosts == nil {
		reg.Hosts = []Host{}
	}
	for i := range reg.Applications {
		if reg.Applications[i].Endpoints == nil {
			reg.Applications[i].Endpoints = map[string]EndpointSet{}
		}
	}
}
