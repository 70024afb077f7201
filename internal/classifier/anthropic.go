package classifier

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/amarchal/shotbox/internal/domain"
)

const anthropicAPI = "https://api.anthropic.com/v1/messages"

// Anthropic calls the Anthropic messages API for both vision
// classification and text-only completions.
type Anthropic struct {
	apiKey string
	model  string
	client *http.Client
}

// NewAnthropic creates an Anthropic client from the environment.
func NewAnthropic() (*Anthropic, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	return &Anthropic{
		apiKey: apiKey,
		model:  "claude-sonnet-4-20250514",
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name identifies this backend.
func (a *Anthropic) Name() string {
	return "anthropic"
}

// Classify sends the screenshot with the fixed instruction and parses the
// structured record out of the response. A single call, no retry.
func (a *Anthropic) Classify(item domain.CapturedItem) (*domain.Post, error) {
	imageData, err := os.ReadFile(item.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}

	content := []anthropicContent{
		{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: mediaType(item.AbsPath),
				Data:      base64.StdEncoding.EncodeToString(imageData),
			},
		},
		{Type: "text", Text: classifyPrompt},
	}

	resp, err := a.callAPI(content)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	return ParsePost(resp)
}

// Complete runs a text-only prompt and returns the raw response text.
func (a *Anthropic) Complete(prompt string) (string, error) {
	resp, err := a.callAPI([]anthropicContent{{Type: "text", Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	return resp, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) callAPI(content []anthropicContent) (string, error) {
	reqBody := anthropicRequest{
		Model:     a.model,
		MaxTokens: 2048,
		Messages: []anthropicMessage{
			{Role: "user", Content: content},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", anthropicAPI, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Content[0].Text, nil
}
