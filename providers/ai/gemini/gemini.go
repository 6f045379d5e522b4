// Package gemini implements the ai.Provider interface against Google's
// Gemini generateContent API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/flowstack/flowstack/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"

	// maxOutputTokens bounds the response size per generation call.
	maxOutputTokens = 2048
)

// Provider implements ai.Provider for the Gemini API.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*Provider)(nil)

// New creates a Gemini provider with defaults from the environment.
// Environment variables:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: base URL override (optional)
func New() *Provider {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage implements ai.Provider. Gemini has no system role, so the
// system prompt is folded into the first user part during conversion. The
// API key is transported as a query parameter, not a Bearer token.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is not set")
	}

	model := request.Model
	if model == "" {
		model = defaultModel
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	resp, err := postGenerateContent(ctx, p.client, endpoint, requestFromGeneric(request))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	content, finishReason, err := extractCandidate(*resp)
	if err != nil {
		return nil, err
	}

	return &ai.ChatResponse{
		Model:        model,
		Content:      content,
		FinishReason: finishReason,
	}, nil
}
