// Package pipeline sequences the ingestion of captured screenshots:
// scan, classify, enrich, route, format, log, mark. Items are processed
// strictly one at a time; a failure abandons that item and never the batch.
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/amarchal/shotbox/internal/catalog"
	"github.com/amarchal/shotbox/internal/classifier"
	"github.com/amarchal/shotbox/internal/domain"
	"github.com/amarchal/shotbox/internal/notes"
	"github.com/amarchal/shotbox/internal/processed"
	"github.com/amarchal/shotbox/internal/router"
	"github.com/amarchal/shotbox/internal/runlog"
	"github.com/amarchal/shotbox/internal/scanner"
	"github.com/amarchal/shotbox/internal/vault"
)

// Enricher produces an optional research bundle for a classified post.
type Enricher interface {
	Enrich(post *domain.Post) *domain.ResearchBundle
}

// Recorder indexes successfully ingested notes.
type Recorder interface {
	Add(post *domain.Post, notePath, sourcePath string, now time.Time) (*catalog.Note, error)
}

// Summary aggregates one ingest run.
type Summary struct {
	Discovered int
	Processed  int
	Failed     int
}

// Config wires a Pipeline.
type Config struct {
	Vault      *vault.Vault
	Processed  *processed.Set
	Classifier classifier.Client
	Enricher   Enricher // nil disables enrichment
	Router     *router.Router
	Catalog    Recorder // nil disables the catalog
	Logger     *zap.Logger
	DryRun     bool
	Now        func() time.Time
}

// Pipeline runs the ingest sequence over a watched folder.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline. Logger and Now get defaults when unset.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{cfg: cfg}
}

// Run ingests every unprocessed screenshot in watchDir and returns the
// batch summary. Per-item errors are counted, not propagated.
func (p *Pipeline) Run(watchDir string) (Summary, error) {
	var summary Summary

	items, err := scanner.Scan(watchDir, p.cfg.Vault.Root(), p.cfg.Processed)
	if err != nil {
		return summary, fmt.Errorf("scan: %w", err)
	}
	summary.Discovered = len(items)

	for _, item := range items {
		if err := p.processItem(item); err != nil {
			summary.Failed++
			p.cfg.Logger.Error("item failed",
				zap.String("item", item.Name),
				zap.Error(err))
			continue
		}
		summary.Processed++
	}

	p.cfg.Logger.Info("ingest run complete",
		zap.Int("discovered", summary.Discovered),
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Bool("dry_run", p.cfg.DryRun))
	return summary, nil
}

func (p *Pipeline) processItem(item domain.CapturedItem) error {
	now := p.cfg.Now()

	post, err := p.cfg.Classifier.Classify(item)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	// Enrichment degrades internally and never fails the item.
	var bundle *domain.ResearchBundle
	if p.cfg.Enricher != nil {
		bundle = p.cfg.Enricher.Enrich(post)
	}

	dest := p.cfg.Router.Route(post)
	dir := p.cfg.Vault.DestinationDir(dest)
	name := notes.Disambiguate(notes.Filename(post.Title), func(n string) bool {
		return p.cfg.Vault.Exists(filepath.Join(dir, n))
	})
	noteRel := filepath.Join(dir, name)

	doc := notes.Render(post, item.VaultPath, bundle, now)

	p.cfg.Logger.Info("classified",
		zap.String("item", item.Name),
		zap.String("title", post.Title),
		zap.String("category", string(post.Category)),
		zap.Float64("confidence", post.Confidence),
		zap.String("destination", dest.String()),
		zap.String("note", noteRel),
		zap.Bool("researched", !bundle.Empty()))

	if p.cfg.DryRun {
		// The full pipeline ran; only the writes are suppressed. The
		// marker stays in memory so later items in this run see it.
		p.cfg.Processed.Record(item.Name, p.marker(now))
		return nil
	}

	if err := p.cfg.Vault.Write(noteRel, doc); err != nil {
		return fmt.Errorf("save note: %w", err)
	}

	logRel := filepath.Join(p.cfg.Vault.InboxDir(), runlog.DocumentName)
	if err := runlog.Append(p.cfg.Vault, logRel, post, item.VaultPath, noteRel, now); err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	if p.cfg.Catalog != nil {
		if _, err := p.cfg.Catalog.Add(post, noteRel, item.VaultPath, now); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}

	p.cfg.Processed.Record(item.Name, p.marker(now))
	if err := p.cfg.Processed.Persist(); err != nil {
		return fmt.Errorf("persist processed set: %w", err)
	}
	return nil
}

func (p *Pipeline) marker(now time.Time) domain.ProcessedMarker {
	return domain.ProcessedMarker{
		ProcessedAt: now,
		Provider:    p.cfg.Classifier.Name(),
	}
}
