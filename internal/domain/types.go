package domain

import "time"

// Category is the destination class assigned by the classifier.
type Category string

const (
	CategoryResource    Category = "resource"
	CategoryProjectIdea Category = "project-idea"
)

// CapturedItem is a screenshot discovered in the watched folder.
// Items are created outside the pipeline and never mutated by it.
type CapturedItem struct {
	// Name is the stable identifier (the filename).
	Name string `json:"name"`
	// AbsPath is the absolute location on disk.
	AbsPath string `json:"abs_path"`
	// VaultPath is the location relative to the vault root.
	VaultPath string `json:"vault_path"`
}

// Engagement holds the post's metric counts. Every field is optional;
// screenshots often crop them out.
type Engagement struct {
	Likes   *int `json:"likes"`
	Shares  *int `json:"shares"`
	Replies *int `json:"replies"`
}

// Empty reports whether no metric was extracted at all.
func (e Engagement) Empty() bool {
	return e.Likes == nil && e.Shares == nil && e.Replies == nil
}

// Post is the structured record extracted from one screenshot.
// The classifier's contract asserts confidence in [0,1], a known category,
// and at most 5 tags; the pipeline trusts the returned structure.
type Post struct {
	Author     string     `json:"author"`
	AuthorName string     `json:"author_name"`
	Date       string     `json:"date"`
	Text       string     `json:"text"`
	HasImages  bool       `json:"has_images"`
	IsThread   bool       `json:"is_thread"`
	Engagement Engagement `json:"engagement"`
	Category   Category   `json:"category"`
	Confidence float64    `json:"confidence"`
	// Tags are ordered and not deduplicated.
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
	Title     string   `json:"title"`
	Relevance string   `json:"relevance"`
}

// ResearchResult is one candidate reference surfaced during enrichment.
type ResearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	// Relevance, Reason and Summary are set by the filtering step.
	Relevance float64 `json:"relevance"`
	Reason    string  `json:"reason"`
	Summary   string  `json:"summary"`
}

// ResearchBundle is the search query plus the surviving results.
// Filtered is false when the relevance-filtering call failed and the raw
// results were passed through with a neutral score.
type ResearchBundle struct {
	Query    string           `json:"query"`
	Results  []ResearchResult `json:"results"`
	Filtered bool             `json:"filtered"`
}

// Empty reports whether the bundle carries no results.
func (b *ResearchBundle) Empty() bool {
	return b == nil || len(b.Results) == 0
}

// ProcessedMarker records that an item was fully handled.
// Markers are never removed.
type ProcessedMarker struct {
	ProcessedAt time.Time `json:"processed_at"`
	Provider    string    `json:"provider"`
}
