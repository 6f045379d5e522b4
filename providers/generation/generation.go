// Package generation implements the engine's generation collaborator by
// routing each request to the LLM provider matching its credential type
// and assembling the chat messages from the accumulated context.
package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/providers/ai"
	"github.com/flowstack/flowstack/providers/ai/gemini"
	"github.com/flowstack/flowstack/providers/ai/openai"
)

// ProviderFactory constructs a fresh provider instance for one call.
// Providers carry per-call credentials, so instances are never shared
// between concurrent executions.
type ProviderFactory func() ai.Provider

// Router dispatches generation requests to the provider matching the API
// key's detected type.
type Router struct {
	openaiFactory ProviderFactory
	geminiFactory ProviderFactory
	logger        *slog.Logger
}

var _ engine.Generator = (*Router)(nil)

// NewRouter creates a Router with the stock OpenAI and Gemini providers.
func NewRouter(logger *slog.Logger) *Router {
	return NewRouterWithFactories(
		func() ai.Provider { return openai.New() },
		func() ai.Provider { return gemini.New() },
		logger,
	)
}

// NewRouterWithFactories creates a Router with custom provider factories,
// used by tests to substitute mock providers.
func NewRouterWithFactories(openaiFactory, geminiFactory ProviderFactory, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		openaiFactory: openaiFactory,
		geminiFactory: geminiFactory,
		logger:        logger,
	}
}

// Generate implements engine.Generator. The user message carries the
// document context inline; web results ride on the system prompt. The
// provider is chosen from the key prefix, never from the model name, so a
// mismatched model cannot route a credential to the wrong API.
func (r *Router) Generate(ctx context.Context, request engine.GenerationRequest) (string, error) {
	userMessage := request.Query
	if request.ContextText != "" {
		userMessage = fmt.Sprintf("Context from documents:\n%s\n\nQuery: %s", request.ContextText, request.Query)
	}

	systemPrompt := request.SystemPrompt
	if request.WebResults != "" {
		systemPrompt += "\n\nYou have access to the following web search results:\n" + request.WebResults
	}

	var provider ai.Provider
	keyType := ai.DetectKeyType(request.APIKey)
	switch keyType {
	case ai.KeyTypeGemini:
		provider = r.geminiFactory()
	default:
		provider = r.openaiFactory()
	}

	response, err := provider.WithAPIKey(request.APIKey).SendMessage(ctx, ai.ChatRequest{
		Model:        request.Model,
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: userMessage}},
		SystemPrompt: systemPrompt,
		Temperature:  request.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generation via %s failed: %w", keyType, err)
	}

	return response.Content, nil
}
