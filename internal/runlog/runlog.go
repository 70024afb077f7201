// Package runlog appends human-readable ingest records to a running
// markdown log, newest first.
package runlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/amarchal/shotbox/internal/domain"
)

// DocumentName is the log's filename inside the inbox folder.
const DocumentName = "ingest-log.md"

const header = `# Ingest Log

Screenshots processed by shotbox, newest first.

---
`

const separator = "\n---\n"

// Store reads and writes vault documents.
type Store interface {
	Exists(rel string) bool
	Read(rel string) ([]byte, error)
	Write(rel string, content []byte) error
}

// Append inserts an entry for a processed item at the head of the log at
// rel, creating the document with its fixed header on first use.
func Append(store Store, rel string, post *domain.Post, sourceVaultPath, noteVaultPath string, now time.Time) error {
	doc := header
	if store.Exists(rel) {
		data, err := store.Read(rel)
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		doc = string(data)
	}

	entry := formatEntry(post, sourceVaultPath, noteVaultPath, now)

	// New entries go immediately after the first separator so the log
	// stays newest-first and the header is never duplicated.
	idx := strings.Index(doc, separator)
	if idx < 0 {
		doc = doc + separator + entry
	} else {
		cut := idx + len(separator)
		doc = doc[:cut] + entry + doc[cut:]
	}

	if err := store.Write(rel, []byte(doc)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEntry(post *domain.Post, sourceVaultPath, noteVaultPath string, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n## %s\n\n", post.Title)
	fmt.Fprintf(&sb, "- Author: %s\n", post.Author)
	fmt.Fprintf(&sb, "- Category: %s\n", post.Category)
	fmt.Fprintf(&sb, "- Tags: %s\n", strings.Join(post.Tags, ", "))
	fmt.Fprintf(&sb, "- Note: [[%s]]\n", noteVaultPath)
	fmt.Fprintf(&sb, "- Source: [[%s]]\n", sourceVaultPath)
	fmt.Fprintf(&sb, "- Processed: %s\n", now.Format("2006-01-02 15:04"))
	return sb.String()
}
