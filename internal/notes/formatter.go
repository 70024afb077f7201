// Package notes renders classified posts into markdown vault documents.
package notes

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amarchal/shotbox/internal/domain"
)

// Relevance tier cutoffs for the research section labels.
const (
	tierHigh   = 0.8
	tierMedium = 0.6
)

const maxFilenameLen = 50

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives the note filename from a title: lowercased, runs of
// non-alphanumerics collapsed to single hyphens, trimmed, truncated to 50
// characters, with the markdown extension appended.
func Filename(title string) string {
	name := strings.ToLower(title)
	name = nonAlnum.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
		name = strings.TrimRight(name, "-")
	}
	return name + ".md"
}

// Disambiguate returns name, or name with a numeric suffix when exists
// reports a collision: note.md, note-2.md, note-3.md, ...
func Disambiguate(name string, exists func(string) bool) string {
	if !exists(name) {
		return name
	}
	base := strings.TrimSuffix(name, ".md")
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d.md", base, i)
		if !exists(candidate) {
			return candidate
		}
	}
}

// Render produces the full note document for a classified post.
// sourceVaultPath is the screenshot's vault-relative path; bundle may be
// nil when enrichment was disabled or produced nothing.
func Render(post *domain.Post, sourceVaultPath string, bundle *domain.ResearchBundle, now time.Time) []byte {
	var sb strings.Builder

	writeHeader(&sb, post, sourceVaultPath, now)

	fmt.Fprintf(&sb, "# %s\n\n", post.Title)

	if line := byline(post); line != "" {
		sb.WriteString(line)
		sb.WriteString("\n\n")
	}

	for _, l := range strings.Split(strings.TrimSpace(post.Text), "\n") {
		sb.WriteString("> ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if post.HasImages {
		fmt.Fprintf(&sb, "![[%s]]\n\n", sourceVaultPath)
	}

	sb.WriteString("## Key Insights\n\n")
	sb.WriteString(post.Summary)
	sb.WriteString("\n\n")

	sb.WriteString("## Why It Matters\n\n")
	sb.WriteString(post.Relevance)
	sb.WriteString("\n\n")

	if !bundle.Empty() {
		writeResearch(&sb, bundle)
	}

	sb.WriteString("## Related Notes\n\n- \n\n")

	sb.WriteString("---\n[[ingest-log|← Ingest log]]\n")

	return []byte(sb.String())
}

func writeHeader(sb *strings.Builder, post *domain.Post, sourceVaultPath string, now time.Time) {
	sb.WriteString("---\n")
	fmt.Fprintf(sb, "created: %s\n", now.Format("2006-01-02"))
	sb.WriteString("source: social-screenshot\n")
	fmt.Fprintf(sb, "author: \"%s\"\n", post.Author)
	fmt.Fprintf(sb, "author_name: \"%s\"\n", post.AuthorName)
	fmt.Fprintf(sb, "tags: [%s]\n", strings.Join(post.Tags, ", "))
	fmt.Fprintf(sb, "category: %s\n", post.Category)
	fmt.Fprintf(sb, "confidence: %.2f\n", post.Confidence)
	fmt.Fprintf(sb, "source_image: \"[[%s]]\"\n", sourceVaultPath)
	sb.WriteString("---\n\n")
}

// byline builds the author/date/engagement line. It is omitted entirely
// when the screenshot carried no engagement data.
func byline(post *domain.Post) string {
	if post.Engagement.Empty() {
		return ""
	}

	parts := []string{fmt.Sprintf("**%s**", post.Author)}
	if post.AuthorName != "" {
		parts[0] += fmt.Sprintf(" (%s)", post.AuthorName)
	}
	if post.Date != "" {
		parts = append(parts, post.Date)
	}
	if n := post.Engagement.Likes; n != nil {
		parts = append(parts, fmt.Sprintf("%d likes", *n))
	}
	if n := post.Engagement.Shares; n != nil {
		parts = append(parts, fmt.Sprintf("%d shares", *n))
	}
	if n := post.Engagement.Replies; n != nil {
		parts = append(parts, fmt.Sprintf("%d replies", *n))
	}
	if post.IsThread {
		parts = append(parts, "thread")
	}
	return strings.Join(parts, " · ")
}

func writeResearch(sb *strings.Builder, bundle *domain.ResearchBundle) {
	sb.WriteString("## Auto-Research\n\n")
	fmt.Fprintf(sb, "Query: `%s`\n\n", bundle.Query)
	if !bundle.Filtered {
		sb.WriteString("_Relevance scoring unavailable; raw search results below._\n\n")
	}
	for _, r := range bundle.Results {
		fmt.Fprintf(sb, "- [%s](%s) — %s relevance\n", r.Title, r.URL, tierLabel(r.Relevance))
		if r.Summary != "" {
			fmt.Fprintf(sb, "  - %s\n", r.Summary)
		}
		if r.Reason != "" {
			fmt.Fprintf(sb, "  - %s\n", r.Reason)
		}
	}
	sb.WriteString("\n")
}

func tierLabel(relevance float64) string {
	switch {
	case relevance >= tierHigh:
		return "High"
	case relevance >= tierMedium:
		return "Medium"
	default:
		return "Low"
	}
}
