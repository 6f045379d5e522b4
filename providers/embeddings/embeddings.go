// Package embeddings produces query embedding vectors for retrieval.
// The embedding backend is selected by model-name prefix: OpenAI models
// start with "text-embedding", Gemini models with "models/embedding".
package embeddings

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/flowstack/flowstack/internal/utils"
)

const (
	openaiDefaultBaseURL = "https://api.openai.com/v1"
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Embedder converts a query string into an embedding vector using the
// given credential and model.
type Embedder interface {
	EmbedQuery(ctx context.Context, query, apiKey, model string) ([]float32, error)
}

// Client is the stock Embedder, routing by model prefix to the OpenAI
// embeddings endpoint or the Gemini embedContent endpoint.
type Client struct {
	openaiBaseURL string
	geminiBaseURL string
	httpClient    *http.Client
}

var _ Embedder = (*Client)(nil)

// NewClient creates a Client with endpoints from the environment
// (OPENAI_API_BASE_URL, GEMINI_API_BASE_URL) or the provider defaults.
func NewClient() *Client {
	openaiBaseURL := os.Getenv("OPENAI_API_BASE_URL")
	if openaiBaseURL == "" {
		openaiBaseURL = openaiDefaultBaseURL
	}
	geminiBaseURL := os.Getenv("GEMINI_API_BASE_URL")
	if geminiBaseURL == "" {
		geminiBaseURL = geminiDefaultBaseURL
	}

	return &Client{
		openaiBaseURL: openaiBaseURL,
		geminiBaseURL: geminiBaseURL,
		httpClient:    &http.Client{},
	}
}

// WithHttpClient sets a custom HTTP client.
func (c *Client) WithHttpClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// EmbedQuery implements Embedder.
func (c *Client) EmbedQuery(ctx context.Context, query, apiKey, model string) ([]float32, error) {
	switch {
	case strings.HasPrefix(model, "text-embedding"):
		return c.embedOpenAI(ctx, query, apiKey, model)
	case strings.HasPrefix(model, "models/embedding"):
		return c.embedGemini(ctx, query, apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported embedding model: %s", model)
	}
}

type openaiEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

func (c *Client) embedOpenAI(ctx context.Context, query, apiKey, model string) ([]float32, error) {
	resp, err := utils.DoPostSync[openaiEmbeddingResponse](ctx, c.httpClient, c.openaiBaseURL+"/embeddings", apiKey, openaiEmbeddingRequest{
		Input: []string{query},
		Model: model,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embedding error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data in OpenAI response")
	}
	return resp.Data[0].Embedding, nil
}

type geminiEmbeddingRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbeddingResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (c *Client) embedGemini(ctx context.Context, query, apiKey, model string) ([]float32, error) {
	endpoint := fmt.Sprintf("%s/%s:embedContent?key=%s", c.geminiBaseURL, model, url.QueryEscape(apiKey))

	request := geminiEmbeddingRequest{Model: model, TaskType: "retrieval_query"}
	request.Content.Parts = []geminiPart{{Text: query}}

	resp, err := utils.DoPostSync[geminiEmbeddingResponse](ctx, c.httpClient, endpoint, "", request)
	if err != nil {
		return nil, fmt.Errorf("Gemini embedding error: %w", err)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in Gemini response")
	}
	return resp.Embedding.Values, nil
}
