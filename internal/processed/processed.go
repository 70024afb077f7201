// Package processed tracks which screenshots have already been ingested,
// persisted as a single JSON document under the vault's state folder.
package processed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/amarchal/shotbox/internal/domain"
)

// Set is the in-memory processed mapping, keyed by item filename.
type Set struct {
	path    string
	markers map[string]domain.ProcessedMarker
}

// Load reads the processed document at path. A missing document yields an
// empty set; a corrupt one is an error.
func Load(path string) (*Set, error) {
	s := &Set{path: path, markers: make(map[string]domain.ProcessedMarker)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read processed set: %w", err)
	}
	if err := json.Unmarshal(data, &s.markers); err != nil {
		return nil, fmt.Errorf("parse processed set: %w", err)
	}
	return s, nil
}

// Contains reports whether name has already been processed.
func (s *Set) Contains(name string) bool {
	_, ok := s.markers[name]
	return ok
}

// Record adds or overwrites the marker for name. The change is in-memory
// until Persist is called.
func (s *Set) Record(name string, marker domain.ProcessedMarker) {
	s.markers[name] = marker
}

// Len returns the number of markers.
func (s *Set) Len() int {
	return len(s.markers)
}

// Persist writes the full mapping back, via a temp file renamed into place
// so a crash cannot leave a truncated document.
func (s *Set) Persist() error {
	data, err := json.MarshalIndent(s.markers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal processed set: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state folder: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".processed-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write processed set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace processed set: %w", err)
	}
	return nil
}
