// Package research optionally augments a classified post with web
// references: it generates a search query, runs the search, and asks the
// model to score each result's relevance. Every step degrades gracefully;
// enrichment never fails the item being ingested.
package research

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/amarchal/shotbox/internal/classifier"
	"github.com/amarchal/shotbox/internal/domain"
)

// Fallback relevance assigned when the filtering call fails and the raw
// results are passed through unscored.
const neutralRelevance = 0.5

// Completer runs a text-only prompt against the model service.
type Completer interface {
	Complete(prompt string) (string, error)
}

// Searcher runs a web search. An unconfigured backend returns an empty
// list, not an error.
type Searcher interface {
	Search(query string, count int) ([]domain.ResearchResult, error)
}

// Enricher chains query generation, search, and relevance filtering.
type Enricher struct {
	completer  Completer
	searcher   Searcher
	maxResults int
	threshold  float64
	logger     *zap.Logger
}

// New creates an Enricher.
func New(completer Completer, searcher Searcher, maxResults int, threshold float64, logger *zap.Logger) *Enricher {
	return &Enricher{
		completer:  completer,
		searcher:   searcher,
		maxResults: maxResults,
		threshold:  threshold,
		logger:     logger,
	}
}

// Enrich returns a research bundle for the post, or nil when query
// generation or the search call failed. Failures are logged, never
// propagated.
func (e *Enricher) Enrich(post *domain.Post) *domain.ResearchBundle {
	query, err := e.generateQuery(post)
	if err != nil {
		e.logger.Warn("query generation failed", zap.Error(err))
		return nil
	}

	raw, err := e.searcher.Search(query, e.maxResults)
	if err != nil {
		e.logger.Warn("web search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(raw) == 0 {
		return &domain.ResearchBundle{Query: query, Filtered: true}
	}

	filtered, err := e.filterResults(post, raw)
	if err != nil {
		// Degrade to an unfiltered passthrough with a neutral score.
		e.logger.Warn("relevance filtering failed, keeping raw results", zap.Error(err))
		passthrough := make([]domain.ResearchResult, len(raw))
		for i, r := range raw {
			r.Relevance = neutralRelevance
			r.Summary = r.Snippet
			passthrough[i] = r
		}
		return &domain.ResearchBundle{Query: query, Results: passthrough, Filtered: false}
	}

	return &domain.ResearchBundle{Query: query, Results: filtered, Filtered: true}
}

// generateQuery asks the model for a short web search query.
func (e *Enricher) generateQuery(post *domain.Post) (string, error) {
	var sb strings.Builder
	sb.WriteString("Generate a web search query of 3-7 words to find material related to this social media post. Return only the query, nothing else.\n\n")
	sb.WriteString("Post text:\n")
	sb.WriteString(post.Text)
	sb.WriteString("\n\nTags: ")
	sb.WriteString(strings.Join(post.Tags, ", "))
	sb.WriteString("\nCategory: ")
	sb.WriteString(string(post.Category))

	resp, err := e.completer.Complete(sb.String())
	if err != nil {
		return "", fmt.Errorf("query generation: %w", err)
	}

	query := strings.TrimSpace(resp)
	query = strings.Trim(query, `"'`)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query generation: empty query")
	}
	return query, nil
}

type filterResponse struct {
	Results []struct {
		Index     int     `json:"index"`
		Relevance float64 `json:"relevance"`
		Reason    string  `json:"reason"`
		Summary   string  `json:"summary"`
	} `json:"results"`
}

// filterResults asks the model to score each raw result, keeps the ones at
// or above the threshold, and sorts them by descending relevance.
func (e *Enricher) filterResults(post *domain.Post, raw []domain.ResearchResult) ([]domain.ResearchResult, error) {
	resp, err := e.completer.Complete(buildFilterPrompt(post, raw))
	if err != nil {
		return nil, fmt.Errorf("filter call: %w", err)
	}

	payload, err := classifier.UnwrapEnvelope(resp)
	if err != nil {
		return nil, fmt.Errorf("filter response: %w", err)
	}

	var parsed filterResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", classifier.ErrBadPayload, err)
	}

	var kept []domain.ResearchResult
	for _, scored := range parsed.Results {
		if scored.Index < 0 || scored.Index >= len(raw) {
			continue
		}
		if scored.Relevance < e.threshold {
			continue
		}
		r := raw[scored.Index]
		r.Relevance = scored.Relevance
		r.Reason = scored.Reason
		r.Summary = scored.Summary
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Relevance > kept[j].Relevance
	})
	return kept, nil
}

func buildFilterPrompt(post *domain.Post, raw []domain.ResearchResult) string {
	var sb strings.Builder
	sb.WriteString("Score how relevant each search result is to this social media post. Return JSON only.\n\n")
	sb.WriteString("Post summary: ")
	sb.WriteString(post.Summary)
	sb.WriteString("\nPost text:\n")
	sb.WriteString(post.Text)
	sb.WriteString("\n\nSearch results:\n")
	for i, r := range raw {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i, r.Title, r.URL, r.Snippet)
	}
	sb.WriteString(`
Return a JSON object with this structure:
{
  "results": [
    {"index": 0, "relevance": 0.8, "reason": "why it relates", "summary": "one-sentence summary"}
  ]
}

Rules:
- "index" refers to the numbered result above
- "relevance" is 0.0-1.0
- "summary" rewrites the result in one sentence
- include every result exactly once

Return ONLY the JSON, no other text.`)
	return sb.String()
}
