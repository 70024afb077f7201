// Package catalog maintains a sqlite index of ingested notes, powering
// the list/search commands and the REST server.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/amarchal/shotbox/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	category TEXT NOT NULL,
	confidence REAL NOT NULL,
	note_path TEXT NOT NULL,
	source_path TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id TEXT NOT NULL REFERENCES notes(id),
	position INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (note_id, position)
);

CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);
CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);
`

// Note is one catalog row.
type Note struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	Category   domain.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	NotePath   string          `json:"note_path"`
	SourcePath string          `json:"source_path"`
	Tags       []string        `json:"tags,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Catalog handles database operations.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at dbPath.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add records an ingested note and returns its catalog entry.
func (c *Catalog) Add(post *domain.Post, notePath, sourcePath string, now time.Time) (*Note, error) {
	note := &Note{
		ID:         uuid.New().String(),
		Title:      post.Title,
		Author:     post.Author,
		Category:   post.Category,
		Confidence: post.Confidence,
		NotePath:   notePath,
		SourcePath: sourcePath,
		Tags:       post.Tags,
		CreatedAt:  now,
	}

	_, err := c.db.Exec(
		"INSERT INTO notes (id, title, author, category, confidence, note_path, source_path, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		note.ID, note.Title, note.Author, string(note.Category), note.Confidence, note.NotePath, note.SourcePath, note.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	for i, tag := range post.Tags {
		if _, err := c.db.Exec(
			"INSERT INTO note_tags (note_id, position, tag) VALUES (?, ?, ?)",
			note.ID, i, tag,
		); err != nil {
			return nil, fmt.Errorf("insert tag: %w", err)
		}
	}

	return note, nil
}

// List returns recent notes, newest first.
func (c *Catalog) List(limit int) ([]Note, error) {
	rows, err := c.db.Query(
		"SELECT id, title, author, category, confidence, note_path, source_path, created_at FROM notes ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	return c.scanNotes(rows)
}

// Search returns notes whose title, author, or tags match the query.
func (c *Catalog) Search(query string) ([]Note, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := c.db.Query(`
		SELECT DISTINCT n.id, n.title, n.author, n.category, n.confidence, n.note_path, n.source_path, n.created_at
		FROM notes n
		LEFT JOIN note_tags t ON t.note_id = n.id
		WHERE lower(n.title) LIKE ? OR lower(n.author) LIKE ? OR lower(t.tag) LIKE ?
		ORDER BY n.created_at DESC
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	return c.scanNotes(rows)
}

func (c *Catalog) scanNotes(rows *sql.Rows) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		var n Note
		var category string
		if err := rows.Scan(&n.ID, &n.Title, &n.Author, &category, &n.Confidence, &n.NotePath, &n.SourcePath, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.Category = domain.Category(category)
		tags, err := c.noteTags(n.ID)
		if err != nil {
			return nil, err
		}
		n.Tags = tags
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (c *Catalog) noteTags(noteID string) ([]string, error) {
	rows, err := c.db.Query(
		"SELECT tag FROM note_tags WHERE note_id = ? ORDER BY position",
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("get note tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
