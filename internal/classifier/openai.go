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

const openaiAPI = "https://api.openai.com/v1/chat/completions"

// OpenAI calls the OpenAI chat completions API, mirroring the Anthropic
// client so either backend can be selected at startup.
type OpenAI struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAI creates an OpenAI client from the environment.
func NewOpenAI() (*OpenAI, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	return &OpenAI{
		apiKey: apiKey,
		model:  "gpt-4o",
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name identifies this backend.
func (o *OpenAI) Name() string {
	return "openai"
}

// Classify sends the screenshot with the fixed instruction and parses the
// structured record out of the response.
func (o *OpenAI) Classify(item domain.CapturedItem) (*domain.Post, error) {
	imageData, err := os.ReadFile(item.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		mediaType(item.AbsPath), base64.StdEncoding.EncodeToString(imageData))

	content := []openaiContent{
		{Type: "text", Text: classifyPrompt},
		{Type: "image_url", ImageURL: &openaiImageURL{URL: dataURL}},
	}

	resp, err := o.callAPI(content)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	return ParsePost(resp)
}

// Complete runs a text-only prompt and returns the raw response text.
func (o *OpenAI) Complete(prompt string) (string, error) {
	resp, err := o.callAPI([]openaiContent{{Type: "text", Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	return resp, nil
}

type openaiRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string          `json:"role"`
	Content []openaiContent `json:"content"`
}

type openaiContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAI) callAPI(content []openaiContent) (string, error) {
	reqBody := openaiRequest{
		Model:     o.model,
		MaxTokens: 2048,
		Messages: []openaiMessage{
			{Role: "user", Content: content},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", openaiAPI, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
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

	var apiResp openaiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Choices[0].Message.Content, nil
}
