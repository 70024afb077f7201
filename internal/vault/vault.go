// Package vault is the document-store boundary: a PARA-organized directory
// of markdown documents that the pipeline reads from and writes into.
package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/amarchal/shotbox/internal/config"
)

// Destination is a routing target inside the vault.
type Destination int

const (
	DestReview Destination = iota
	DestResources
	DestProjects
)

// String returns the destination name for logs and summaries.
func (d Destination) String() string {
	switch d {
	case DestResources:
		return "resources"
	case DestProjects:
		return "projects"
	default:
		return "review"
	}
}

// Vault wraps filesystem access under a single root.
type Vault struct {
	root    string
	folders config.FoldersConfig
}

// New creates a Vault rooted at root with the given folder names.
func New(root string, folders config.FoldersConfig) *Vault {
	return &Vault{root: root, folders: folders}
}

// Root returns the vault root directory.
func (v *Vault) Root() string {
	return v.root
}

// Abs returns the absolute path for a vault-relative path.
func (v *Vault) Abs(rel string) string {
	return filepath.Join(v.root, rel)
}

// Rel returns the vault-relative form of an absolute path. Paths outside
// the vault are returned unchanged.
func (v *Vault) Rel(abs string) string {
	if rel, err := filepath.Rel(v.root, abs); err == nil {
		return rel
	}
	return abs
}

// DestinationDir returns the vault-relative folder for a destination.
func (v *Vault) DestinationDir(d Destination) string {
	switch d {
	case DestResources:
		return v.folders.Resources
	case DestProjects:
		return v.folders.Projects
	default:
		return v.folders.Inbox
	}
}

// InboxDir returns the vault-relative inbox folder.
func (v *Vault) InboxDir() string {
	return v.folders.Inbox
}

// ScreenshotsDir returns the default vault-relative watched folder.
func (v *Vault) ScreenshotsDir() string {
	return filepath.Join(v.folders.Inbox, "screenshots")
}

// StateDir returns the vault-relative folder for pipeline state
// (processed set, catalog database).
func (v *Vault) StateDir() string {
	return ".shotbox"
}

// EnsureLayout creates the PARA folders and the state folder if missing.
func (v *Vault) EnsureLayout() error {
	dirs := []string{
		v.folders.Inbox,
		v.folders.Projects,
		v.folders.Areas,
		v.folders.Resources,
		v.folders.Archives,
		v.ScreenshotsDir(),
		v.StateDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(v.Abs(d), 0755); err != nil {
			return fmt.Errorf("create vault folder %s: %w", d, err)
		}
	}
	return nil
}

// Exists reports whether a vault-relative path exists.
func (v *Vault) Exists(rel string) bool {
	_, err := os.Stat(v.Abs(rel))
	return err == nil
}

// Read returns the contents of a vault-relative document.
func (v *Vault) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(v.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// Write overwrites a vault-relative document, creating parent folders as
// needed. The write goes to a temp file first and is renamed into place.
func (v *Vault) Write(rel string, content []byte) error {
	abs := v.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create document folder: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".shotbox-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// List returns the entry names of a vault-relative directory.
func (v *Vault) List(rel string) ([]string, error) {
	entries, err := os.ReadDir(v.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
