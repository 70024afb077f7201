package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amarchal/shotbox/internal/config"
	"github.com/amarchal/shotbox/internal/domain"
	"github.com/amarchal/shotbox/internal/processed"
	"github.com/amarchal/shotbox/internal/router"
	"github.com/amarchal/shotbox/internal/vault"
)

// fakeClassifier returns a canned post per item name, or an error.
type fakeClassifier struct {
	posts map[string]*domain.Post
	err   error
	calls int
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(item domain.CapturedItem) (*domain.Post, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	post, ok := f.posts[item.Name]
	if !ok {
		return nil, fmt.Errorf("no canned post for %s", item.Name)
	}
	return post, nil
}

func (f *fakeClassifier) Complete(prompt string) (string, error) {
	return "", errors.New("not used")
}

type fakeEnricher struct {
	bundle *domain.ResearchBundle
}

func (f *fakeEnricher) Enrich(post *domain.Post) *domain.ResearchBundle { return f.bundle }

type env struct {
	vault    *vault.Vault
	set      *processed.Set
	watchDir string
	setPath  string
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	v := vault.New(t.TempDir(), cfg.Folders)
	if err := v.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	setPath := v.Abs(filepath.Join(v.StateDir(), "processed.json"))
	set, err := processed.Load(setPath)
	if err != nil {
		t.Fatal(err)
	}
	return &env{
		vault:    v,
		set:      set,
		watchDir: v.Abs(v.ScreenshotsDir()),
		setPath:  setPath,
	}
}

func (e *env) addScreenshot(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.watchDir, name), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
}

func resourcePost(title string) *domain.Post {
	likes := 1200
	return &domain.Post{
		Author:     "@simonw",
		AuthorName: "Simon Willison",
		Text:       "RAG is mostly retrieval engineering.",
		Engagement: domain.Engagement{Likes: &likes},
		Category:   domain.CategoryResource,
		Confidence: 0.92,
		Tags:       []string{"rag", "llm", "retrieval", "search", "ai"},
		Summary:    "A take on RAG.",
		Title:      title,
		Relevance:  "Relevant to retrieval work.",
	}
}

func TestRunEndToEnd(t *testing.T) {
	e := setupEnv(t)
	e.addScreenshot(t, "a.png")

	clf := &fakeClassifier{posts: map[string]*domain.Post{
		"a.png": resourcePost("Building RAG Systems with Claude"),
	}}
	p := New(Config{
		Vault:      e.vault,
		Processed:  e.set,
		Classifier: clf,
		Router:     router.New(0.7),
	})

	summary, err := p.Run(e.watchDir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Discovered != 1 || summary.Processed != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	// Routed to resources.
	noteRel := filepath.Join("03-Resources", "building-rag-systems-with-claude.md")
	if !e.vault.Exists(noteRel) {
		t.Fatalf("note not written at %s", noteRel)
	}

	// Log entry appended with the title.
	logData, err := e.vault.Read(filepath.Join("00-Inbox", "ingest-log.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logData), "Building RAG Systems with Claude") {
		t.Error("log missing entry title")
	}

	// Marker persisted.
	reloaded, err := processed.Load(e.setPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Contains("a.png") {
		t.Error("processed marker not persisted")
	}

	// A second run must not reprocess.
	summary, err = p.Run(e.watchDir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Discovered != 0 {
		t.Errorf("second run discovered %d items", summary.Discovered)
	}
	if clf.calls != 1 {
		t.Errorf("classifier called %d times, want 1", clf.calls)
	}
}

func TestRunLowConfidenceGoesToReview(t *testing.T) {
	e := setupEnv(t)
	e.addScreenshot(t, "a.png")

	post := resourcePost("Unclear Post")
	post.Confidence = 0.5
	p := New(Config{
		Vault:      e.vault,
		Processed:  e.set,
		Classifier: &fakeClassifier{posts: map[string]*domain.Post{"a.png": post}},
		Router:     router.New(0.7),
	})

	if _, err := p.Run(e.watchDir); err != nil {
		t.Fatal(err)
	}
	if !e.vault.Exists(filepath.Join("00-Inbox", "unclear-post.md")) {
		t.Error("low-confidence note should land in the inbox")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	e := setupEnv(t)
	e.addScreenshot(t, "bad.png")
	e.addScreenshot(t, "good.png")

	clf := &fakeClassifier{posts: map[string]*domain.Post{
		"good.png": resourcePost("Good Post"),
		// bad.png has no canned post, so Classify fails for it.
	}}
	p := New(Config{
		Vault:      e.vault,
		Processed:  e.set,
		Classifier: clf,
		Router:     router.New(0.7),
	})

	summary, err := p.Run(e.watchDir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Discovered != 2 || summary.Processed != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !e.vault.Exists(filepath.Join("03-Resources", "good-post.md")) {
		t.Error("good item should still be ingested")
	}

	// The failed item carries no marker, so a later run retries it.
	reloaded, err := processed.Load(e.setPath)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Contains("bad.png") {
		t.Error("failed item must not be marked processed")
	}
	if !reloaded.Contains("good.png") {
		t.Error("good item should be marked processed")
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	e := setupEnv(t)
	e.addScreenshot(t, "a.png")
	e.addScreenshot(t, "b.png")

	p := New(Config{
		Vault:     e.vault,
		Processed: e.set,
		Classifier: &fakeClassifier{posts: map[string]*domain.Post{
			"a.png": resourcePost("Post A"),
			"b.png": resourcePost("Post B"),
		}},
		Router: router.New(0.7),
		DryRun: true,
	})

	summary, err := p.Run(e.watchDir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Discovered != 2 || summary.Processed != 2 {
		t.Errorf("summary = %+v", summary)
	}

	if e.vault.Exists(filepath.Join("03-Resources", "post-a.md")) {
		t.Error("dry run wrote a note")
	}
	if e.vault.Exists(filepath.Join("00-Inbox", "ingest-log.md")) {
		t.Error("dry run wrote the log")
	}
	if _, err := os.Stat(e.setPath); !os.IsNotExist(err) {
		t.Error("dry run persisted the processed set")
	}
}

func TestRunResearchSectionInNote(t *testing.T) {
	e := setupEnv(t)
	e.addScreenshot(t, "a.png")

	bundle := &domain.ResearchBundle{
		Query:    "rag retrieval",
		Filtered: true,
		Results:  []domain.ResearchResult{{Title: "Ref", URL: "https://r.example", Relevance: 0.9, Summary: "s"}},
	}
	p := New(Config{
		Vault:      e.vault,
		Processed:  e.set,
		Classifier: &fakeClassifier{posts: map[string]*domain.Post{"a.png": resourcePost("With Research")}},
		Enricher:   &fakeEnricher{bundle: bundle},
		Router:     router.New(0.7),
	})

	if _, err := p.Run(e.watchDir); err != nil {
		t.Fatal(err)
	}
	data, err := e.vault.Read(filepath.Join("03-Resources", "with-research.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "## Auto-Research") {
		t.Error("note missing research section")
	}
}

func TestRunCollisionSuffix(t *testing.T) {
	e := setupEnv(t)

	p := New(Config{
		Vault:     e.vault,
		Processed: e.set,
		Classifier: &fakeClassifier{posts: map[string]*domain.Post{
			"a.png": resourcePost("Same Title"),
			"b.png": resourcePost("Same Title"),
		}},
		Router: router.New(0.7),
	})

	// Two separate runs so both items produce the same filename.
	e.addScreenshot(t, "a.png")
	if _, err := p.Run(e.watchDir); err != nil {
		t.Fatal(err)
	}
	e.addScreenshot(t, "b.png")
	if _, err := p.Run(e.watchDir); err != nil {
		t.Fatal(err)
	}

	if !e.vault.Exists(filepath.Join("03-Resources", "same-title.md")) {
		t.Error("first note missing")
	}
	if !e.vault.Exists(filepath.Join("03-Resources", "same-title-2.md")) {
		t.Error("second note should get a numeric suffix")
	}
}

func TestRunDryRunStillClassifies(t *testing.T) {
	e := setupEnv(t)
	e.addScreenshot(t, "a.png")

	clf := &fakeClassifier{posts: map[string]*domain.Post{"a.png": resourcePost("A")}}
	p := New(Config{
		Vault:      e.vault,
		Processed:  e.set,
		Classifier: clf,
		Router:     router.New(0.7),
		DryRun:     true,
	})
	if _, err := p.Run(e.watchDir); err != nil {
		t.Fatal(err)
	}
	if clf.calls != 1 {
		t.Errorf("classifier called %d times in dry run, want 1", clf.calls)
	}
}
