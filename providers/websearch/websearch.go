// Package websearch implements the engine's live web-search collaborator
// with two interchangeable providers: SerpAPI (Google results) and the
// Brave Search API. Result snippets frequently carry inline HTML markup;
// they are converted to plain markdown before entering LLM context.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/flowstack/flowstack/engine"
)

const (
	// ProviderSerpAPI routes searches through serpapi.com (Google engine).
	ProviderSerpAPI = "serpapi"

	// ProviderBrave routes searches through the Brave Search API.
	ProviderBrave = "brave"

	// requestTimeout bounds each outbound search call.
	requestTimeout = 30 * time.Second
)

// Service routes search requests to the configured provider and normalizes
// the results. It implements engine.WebSearcher.
type Service struct {
	serpapiBaseURL string
	braveBaseURL   string
	httpClient     *http.Client
}

var _ engine.WebSearcher = (*Service)(nil)

// NewService creates a Service with the production endpoints and a bounded
// request timeout.
func NewService() *Service {
	return &Service{
		serpapiBaseURL: "https://serpapi.com/search",
		braveBaseURL:   "https://api.search.brave.com/res/v1/web/search",
		httpClient:     &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURLs overrides the provider endpoints, used by tests.
func (s *Service) WithBaseURLs(serpapiBaseURL, braveBaseURL string) *Service {
	if serpapiBaseURL != "" {
		s.serpapiBaseURL = serpapiBaseURL
	}
	if braveBaseURL != "" {
		s.braveBaseURL = braveBaseURL
	}
	return s
}

// Search implements engine.WebSearcher. When the request carries no key,
// the provider's default key from the environment is used
// (DEFAULT_SERPAPI_KEY / DEFAULT_BRAVE_API_KEY).
func (s *Service) Search(ctx context.Context, request engine.WebSearchRequest) (*engine.WebSearchResponse, error) {
	apiKey := request.APIKey
	if apiKey == "" {
		switch request.Provider {
		case ProviderSerpAPI:
			apiKey = os.Getenv("DEFAULT_SERPAPI_KEY")
		case ProviderBrave:
			apiKey = os.Getenv("DEFAULT_BRAVE_API_KEY")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key required for %s search", request.Provider)
	}

	numResults := request.NumResults
	if numResults <= 0 {
		numResults = 5
	}

	switch request.Provider {
	case ProviderSerpAPI:
		return s.searchSerpAPI(ctx, request.Query, apiKey, numResults)
	case ProviderBrave:
		return s.searchBrave(ctx, request.Query, apiKey, numResults)
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", request.Provider)
	}
}

// cleanSnippet converts HTML-tagged snippet text to plain markdown. On
// conversion failure the original text is kept; a noisy snippet beats a
// lost one.
func cleanSnippet(snippet string) string {
	if !strings.ContainsRune(snippet, '<') {
		return snippet
	}
	markdown, err := htmltomarkdown.ConvertString(snippet)
	if err != nil {
		return snippet
	}
	return strings.TrimSpace(markdown)
}
