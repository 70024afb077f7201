package research

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/amarchal/shotbox/internal/domain"
)

const braveAPI = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave web search API. When no API key is configured
// every search yields an empty result list rather than an error.
type Brave struct {
	apiKey string
	client *http.Client
}

// NewBrave creates a Brave search client from the environment.
func NewBrave() *Brave {
	return &Brave{
		apiKey: os.Getenv("BRAVE_API_KEY"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search returns at most count results for query.
func (b *Brave) Search(query string, count int) ([]domain.ResearchResult, error) {
	if b.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequest("GET", braveAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp braveResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := make([]domain.ResearchResult, 0, len(apiResp.Web.Results))
	for _, r := range apiResp.Web.Results {
		results = append(results, domain.ResearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
		if len(results) >= count {
			break
		}
	}
	return results, nil
}
