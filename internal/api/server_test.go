package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/amarchal/shotbox/internal/catalog"
	"github.com/amarchal/shotbox/internal/domain"
)

func setupServer(t *testing.T) (*Server, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return New(c, ":0", zap.NewNop()), c
}

func addNote(t *testing.T, c *catalog.Catalog, title string) {
	t.Helper()
	post := &domain.Post{
		Title:      title,
		Author:     "@a",
		Category:   domain.CategoryResource,
		Confidence: 0.9,
		Tags:       []string{"t"},
	}
	if _, err := c.Add(post, "03-Resources/"+title+".md", "s.png", time.Now()); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	rec := httptest.NewRecorder()
	s.health(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListNotes(t *testing.T) {
	s, c := setupServer(t)
	addNote(t, c, "one")
	addNote(t, c, "two")

	rec := httptest.NewRecorder()
	s.listNotes(rec, httptest.NewRequest("GET", "/notes?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Notes []catalog.Note `json:"notes"`
		Limit int            `json:"limit"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Notes) != 1 || resp.Limit != 1 {
		t.Errorf("notes = %d, limit = %d", len(resp.Notes), resp.Limit)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	s, _ := setupServer(t)
	rec := httptest.NewRecorder()
	s.searchNotes(rec, httptest.NewRequest("GET", "/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchNotes(t *testing.T) {
	s, c := setupServer(t)
	addNote(t, c, "Building RAG Systems")
	addNote(t, c, "Gardening")

	rec := httptest.NewRecorder()
	s.searchNotes(rec, httptest.NewRequest("GET", "/search?q=rag", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Notes []catalog.Note `json:"notes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Notes) != 1 || resp.Notes[0].Title != "Building RAG Systems" {
		t.Errorf("unexpected search result: %+v", resp.Notes)
	}
}
