// Package classifier turns captured screenshots into structured post
// records via a hosted vision/language model. One implementation exists
// per backend; the backend is chosen once at startup from configuration.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/amarchal/shotbox/internal/domain"
)

// Client is a model backend. Classify sends one screenshot through the
// vision model; Complete runs a text-only prompt against the same service.
type Client interface {
	// Name identifies the backend, recorded in processed markers.
	Name() string
	Classify(item domain.CapturedItem) (*domain.Post, error)
	Complete(prompt string) (string, error)
}

// Envelope parsing errors. ErrNoPayload means the response held no
// structured payload at all; ErrBadPayload means a payload was present
// but could not be parsed as the expected record.
var (
	ErrNoPayload  = errors.New("no structured payload in response")
	ErrBadPayload = errors.New("malformed structured payload")
)

// New returns the client for the configured provider.
func New(provider string) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic()
	case "openai":
		return NewOpenAI()
	default:
		return nil, fmt.Errorf("unknown provider: %q", provider)
	}
}

// UnwrapEnvelope strips a fenced code block the model may wrap around its
// output and returns the inner text. It fails with ErrNoPayload when no
// JSON object remains.
func UnwrapEnvelope(resp string) (string, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	if !strings.HasPrefix(resp, "{") {
		return "", fmt.Errorf("%w: %s", ErrNoPayload, truncate(resp, 120))
	}
	return resp, nil
}

// ParsePost unwraps the free-text envelope and decodes the post record.
func ParsePost(resp string) (*domain.Post, error) {
	payload, err := UnwrapEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var post domain.Post
	if err := json.Unmarshal([]byte(payload), &post); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return &post, nil
}

// mediaType maps a screenshot extension to its MIME type.
func mediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
