package engine

import (
	"context"
	"errors"

	"github.com/flowstack/flowstack/graph"
)

// KeyRole names the credential slots a workflow may carry. Each node type
// that talks to an external provider resolves its key by role.
type KeyRole string

const (
	// KeyRoleLLM is the credential used by llmEngine nodes.
	KeyRoleLLM KeyRole = "llm"

	// KeyRoleKnowledge is the credential used for embedding and retrieval.
	KeyRoleKnowledge KeyRole = "knowledge"

	// KeyRoleWebSearch is the credential used by the web-search provider.
	KeyRoleWebSearch KeyRole = "websearch"
)

// ErrWorkflowNotFound is returned by a WorkflowStore when no workflow is
// registered for the requested stack.
var ErrWorkflowNotFound = errors.New("workflow not found")

// StoredWorkflow is a workflow definition as loaded from storage.
type StoredWorkflow struct {
	ID    string
	Graph *graph.Graph
}

// WorkflowStore loads workflow definitions by stack ID.
type WorkflowStore interface {
	// GetWorkflow returns the workflow for the stack, or ErrWorkflowNotFound.
	GetWorkflow(ctx context.Context, stackID string) (*StoredWorkflow, error)
}

// KeyStore resolves the decrypted provider credentials of a workflow,
// keyed by role. A missing role simply yields no entry; it is not an error.
type KeyStore interface {
	DecryptedKeys(ctx context.Context, workflowID string) (map[KeyRole]string, error)
}

// Chunk is a scored fragment of indexed document text produced by the
// retrieval collaborator. Chunks are immutable once created.
type Chunk struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	SourceLabel     string  `json:"source"`
	SimilarityScore float64 `json:"similarity_score"`
}

// SearchRequest carries the parameters for one vector-retrieval call.
// SimilarityFloor is the permissive search-time cutoff applied by the
// collaborator; the semantic threshold is applied afterwards by the engine.
type SearchRequest struct {
	StackID         string
	Query           string
	APIKey          string
	Model           string
	TopK            int
	SimilarityFloor float64
}

// Retriever is the vector-retrieval collaborator. Implementations must
// return chunks in descending similarity order.
type Retriever interface {
	Search(ctx context.Context, request SearchRequest) ([]Chunk, error)
}

// GenerationRequest carries the parameters for one language-model call.
// ContextText and WebResults are empty when the corresponding context is
// absent.
type GenerationRequest struct {
	Query        string
	ContextText  string
	APIKey       string
	Model        string
	Temperature  float64
	SystemPrompt string
	WebResults   string
}

// Generator is the language-model generation collaborator.
type Generator interface {
	Generate(ctx context.Context, request GenerationRequest) (string, error)
}

// WebSearchRequest carries the parameters for one live web search.
type WebSearchRequest struct {
	Query      string
	Provider   string
	APIKey     string
	NumResults int
}

// WebSearchResult is a single web search hit.
type WebSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchResponse is the normalized result set of a web search call.
type WebSearchResponse struct {
	Query   string            `json:"query"`
	Results []WebSearchResult `json:"results"`
	Engine  string            `json:"search_engine,omitempty"`
}

// WebSearcher is the live web-search collaborator.
type WebSearcher interface {
	Search(ctx context.Context, request WebSearchRequest) (*WebSearchResponse, error)
}
