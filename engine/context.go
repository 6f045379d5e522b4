package engine

import (
	"fmt"
	"strings"

	"github.com/flowstack/flowstack/internal/utils"
)

// NoKnowledgeSentinel is the fixed context text recorded when retrieval
// kept no chunks. It is compared by exact match elsewhere in the engine to
// distinguish "retrieval ran and found nothing" from genuine content, so it
// must never be produced by chunk formatting.
const NoKnowledgeSentinel = "No relevant information found in the knowledge base."

// NoAnswerMessage is the terminal fallback answer when neither a model
// response nor usable knowledge context exists.
const NoAnswerMessage = "No relevant information found to answer your question."

// ExecutionContext is the single mutable record shared by all node handlers
// of one workflow execution. It is created at the start of Execute, owned
// exclusively by that execution, and discarded once the response is built.
// Fields accumulate as nodes run; no handler performs I/O outside its
// declared collaborator.
type ExecutionContext struct {
	Query   string
	StackID string

	// KnowledgeContext is the formatted retrieval context, the
	// NoKnowledgeSentinel, or a degrade-in-place placeholder.
	KnowledgeContext string

	// KnowledgeFound reports whether any chunk survived the relevance
	// threshold; it drives the web-search fallback decision.
	KnowledgeFound bool

	// WebSearchContext is the formatted web-search context, empty when web
	// search did not run.
	WebSearchContext string

	Chunks  []Chunk
	Sources []string

	LLMResponse string
	FinalOutput string

	// ErrMessage records a recoverable per-node failure (for example an
	// empty query). Dispatch continues past it.
	ErrMessage string

	// ExecutionFlow accumulates the type of each executed node, in order.
	ExecutionFlow []string

	// Summary is populated by the output node.
	Summary *ExecutionSummary
}

// ExecutionSummary is the response metadata derived from the terminal
// context state by the output node.
type ExecutionSummary struct {
	ExecutionFlow []string `json:"execution_flow"`
	ChunkCount    int      `json:"context_chunks_used"`
	SourceCount   int      `json:"web_sources_used"`
	HasKnowledge  bool     `json:"has_knowledge_context"`
	HasWebContext bool     `json:"has_web_context"`
}

// newExecutionContext creates the context for one execution.
func newExecutionContext(stackID, query string) *ExecutionContext {
	return &ExecutionContext{
		Query:   query,
		StackID: stackID,
	}
}

// hasUsableKnowledge reports whether the knowledge context carries genuine
// retrieved content, as opposed to being empty or the sentinel.
func (c *ExecutionContext) hasUsableKnowledge() bool {
	return c.KnowledgeContext != "" && c.KnowledgeContext != NoKnowledgeSentinel
}

// mergeKnowledge folds another retrieval result into the context. Multiple
// knowledgeBase nodes merge rather than overwrite: context blocks are
// joined with a blank line and chunks are appended.
func (c *ExecutionContext) mergeKnowledge(contextText string, chunks []Chunk, found bool) {
	if c.hasUsableKnowledge() && contextText != "" && contextText != NoKnowledgeSentinel {
		c.KnowledgeContext = c.KnowledgeContext + "\n\n" + contextText
	} else if !c.hasUsableKnowledge() {
		c.KnowledgeContext = contextText
	}
	c.Chunks = append(c.Chunks, chunks...)
	c.KnowledgeFound = c.KnowledgeFound || found
}

// distinctSources returns the accumulated source URLs with duplicates
// removed, preserving first-seen order.
func (c *ExecutionContext) distinctSources() []string {
	seen := make(map[string]bool, len(c.Sources))
	distinct := make([]string, 0, len(c.Sources))
	for _, source := range c.Sources {
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		distinct = append(distinct, source)
	}
	return distinct
}

// formatChunkForResponse renders a chunk into the string form exposed in
// the response's context_chunks field.
func formatChunkForResponse(chunk Chunk) string {
	return fmt.Sprintf("[Score: %.3f] Source: %s - %s",
		chunk.SimilarityScore, chunk.SourceLabel, utils.Ellipsize(chunk.Text, 200))
}

// buildContextText concatenates kept chunks into the retrieval context
// format consumed by the generation prompt: one "[i] Source: ...\n
// Content: ..." block per chunk, blocks separated by blank lines.
func buildContextText(chunks []Chunk) string {
	if len(chunks) == 0 {
		return NoKnowledgeSentinel
	}

	blocks := make([]string, 0, len(chunks))
	for index, chunk := range chunks {
		blocks = append(blocks, fmt.Sprintf("[%d] Source: %s\nContent: %s", index+1, chunk.SourceLabel, chunk.Text))
	}
	return strings.Join(blocks, "\n\n")
}
