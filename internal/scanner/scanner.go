// Package scanner discovers screenshots that have not been ingested yet.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amarchal/shotbox/internal/domain"
)

// imageExts are the accepted screenshot extensions, matched case-insensitively.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsImage reports whether name has an accepted screenshot extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ProcessedSet answers whether an item name was already handled.
type ProcessedSet interface {
	Contains(name string) bool
}

// Scan lists image files in dir that are not in the processed set.
// A missing dir is created and yields an empty result (first-run bootstrap).
// vaultRoot is used to compute each item's vault-relative path. Order is
// whatever the filesystem returns.
func Scan(dir, vaultRoot string, set ProcessedSet) ([]domain.CapturedItem, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create watch folder: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list watch folder: %w", err)
	}

	var items []domain.CapturedItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !IsImage(name) {
			continue
		}
		if set.Contains(name) {
			continue
		}
		abs := filepath.Join(dir, name)
		rel := abs
		if r, err := filepath.Rel(vaultRoot, abs); err == nil {
			rel = r
		}
		items = append(items, domain.CapturedItem{
			Name:      name,
			AbsPath:   abs,
			VaultPath: rel,
		})
	}
	return items, nil
}
