package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowstack/flowstack/graph"
)

// Default node configuration values, matching what the workflow editor
// emits when a setting is left untouched.
const (
	defaultEmbeddingModel = "text-embedding-3-large"
	defaultTopK           = 5
	defaultSearchProvider = "serpapi"
	defaultNumResults     = 5

	defaultSystemPrompt = "You are a helpful assistant. Use the provided context to answer the user's question accurately and comprehensively. If the context doesn't contain enough information, say so clearly."
)

// dispatch walks the topologically sorted node list exactly once, invoking
// the handler for each node's type against the shared execution context.
// A type index is built up front so handlers that need a sibling node's
// configuration (the web-search gate lives on the llmEngine node) avoid
// re-scanning the list.
func (e *Engine) dispatch(ctx context.Context, workflowGraph *graph.Graph, order []string, executionContext *ExecutionContext, apiKeys map[KeyRole]string) {
	typeIndex := make(map[graph.NodeType][]graph.Node, len(order))
	for _, nodeID := range order {
		node, _ := workflowGraph.Node(nodeID)
		typeIndex[node.Type] = append(typeIndex[node.Type], node)
	}

	for position, nodeID := range order {
		node, _ := workflowGraph.Node(nodeID)
		e.logger.Info("processing node",
			"position", fmt.Sprintf("%d/%d", position+1, len(order)),
			"node_id", node.ID,
			"type", string(node.Type),
		)

		executionContext.ExecutionFlow = append(executionContext.ExecutionFlow, string(node.Type))

		switch node.Type {
		case graph.NodeUserQuery:
			e.processUserQuery(executionContext)
		case graph.NodeKnowledgeBase:
			e.processKnowledgeBase(ctx, node, executionContext, apiKeys)
		case graph.NodeWebSearch:
			e.processWebSearch(ctx, node, typeIndex, executionContext, apiKeys)
		case graph.NodeLLMEngine:
			e.processLLMEngine(ctx, node, typeIndex, executionContext, apiKeys)
		case graph.NodeOutput:
			executionContext.FinalOutput = assembleFinalOutput(executionContext)
			executionContext.Summary = assembleSummary(executionContext)
		}
	}
}

// processUserQuery validates the query. An empty query is recorded as a
// recoverable error; dispatch continues so the output node can still
// produce a best-effort answer.
func (e *Engine) processUserQuery(executionContext *ExecutionContext) {
	trimmed := strings.TrimSpace(executionContext.Query)
	if trimmed == "" {
		executionContext.ErrMessage = "Empty query provided"
		e.logger.Warn("empty query provided")
		return
	}
	executionContext.Query = trimmed
}

// processKnowledgeBase retrieves indexed document context and merges it
// into the shared context. Failures degrade in place: a placeholder is
// written and dispatch continues.
func (e *Engine) processKnowledgeBase(ctx context.Context, node graph.Node, executionContext *ExecutionContext, apiKeys map[KeyRole]string) {
	apiKey := node.StringConfig("apiKey", node.StringConfig("api_key", apiKeys[KeyRoleKnowledge]))
	if apiKey == "" {
		executionContext.mergeKnowledge("No API key found for knowledge base", nil, false)
		e.logger.Warn("no API key found for knowledge base", "node_id", node.ID)
		return
	}

	embeddingModel := node.StringConfig("embeddingModel", node.StringConfig("embedding_model", defaultEmbeddingModel))
	topK := node.IntConfig("top_k", node.IntConfig("max_chunks", defaultTopK))

	result, err := e.retrieval.Retrieve(ctx, executionContext.Query, executionContext.StackID, apiKey, embeddingModel, topK)
	if err != nil {
		executionContext.mergeKnowledge(fmt.Sprintf("Error retrieving knowledge: %v", err), nil, false)
		e.logger.Warn("knowledge base search failed", "node_id", node.ID, "error", err)
		return
	}

	executionContext.mergeKnowledge(result.ContextText, result.Chunks, result.Found)
}

// processWebSearch runs a dedicated webSearch node. The node only fires
// when the fallback decision holds: web search enabled on the llmEngine
// node, a provider key present, and no knowledge found above threshold.
func (e *Engine) processWebSearch(ctx context.Context, node graph.Node, typeIndex map[graph.NodeType][]graph.Node, executionContext *ExecutionContext, apiKeys map[KeyRole]string) {
	apiKey := node.StringConfig("apiKey", node.StringConfig("api_key", apiKeys[KeyRoleWebSearch]))

	if !shouldSearchWeb(webSearchEnabled(typeIndex), apiKey != "", executionContext.KnowledgeFound) {
		e.logger.Info("web search skipped",
			"node_id", node.ID,
			"knowledge_found", executionContext.KnowledgeFound,
			"key_present", apiKey != "",
		)
		return
	}

	provider := node.StringConfig("provider", defaultSearchProvider)
	numResults := node.IntConfig("num_results", defaultNumResults)
	e.runWebSearch(ctx, provider, apiKey, numResults, executionContext)
}

// runWebSearch performs the live search and folds results and source URLs
// into the context. Failures degrade in place.
func (e *Engine) runWebSearch(ctx context.Context, provider, apiKey string, numResults int, executionContext *ExecutionContext) {
	if e.webSearcher == nil {
		executionContext.WebSearchContext = "Web search is not configured"
		return
	}

	searchResponse, err := e.webSearcher.Search(ctx, WebSearchRequest{
		Query:      executionContext.Query,
		Provider:   provider,
		APIKey:     apiKey,
		NumResults: numResults,
	})
	if err != nil {
		executionContext.WebSearchContext = fmt.Sprintf("Web search failed: %v", err)
		e.logger.Warn("web search failed", "provider", provider, "error", err)
		return
	}

	executionContext.WebSearchContext = formatWebResultsForLLM(searchResponse)
	for _, result := range searchResponse.Results {
		if result.URL != "" {
			executionContext.Sources = append(executionContext.Sources, result.URL)
		}
	}

	e.logger.Info("web search completed",
		"provider", provider,
		"results", len(searchResponse.Results),
	)
}

// processLLMEngine normalizes the model configuration, optionally triggers
// the integrated web-search fallback, builds the augmented system prompt,
// and calls the generation collaborator.
func (e *Engine) processLLMEngine(ctx context.Context, node graph.Node, typeIndex map[graph.NodeType][]graph.Node, executionContext *ExecutionContext, apiKeys map[KeyRole]string) {
	apiKey := node.StringConfig("apiKey", node.StringConfig("api_key", apiKeys[KeyRoleLLM]))
	if apiKey == "" {
		executionContext.LLMResponse = "No API key found for LLM"
		e.logger.Warn("no API key found for LLM", "node_id", node.ID)
		return
	}

	normalized := e.normalizer.Normalize(apiKey, node.StringConfig("model", ""), node.Config["temperature"])

	// Integrated fallback: when no dedicated webSearch node ran, the
	// llmEngine node performs the search itself before generating.
	if executionContext.WebSearchContext == "" && len(typeIndex[graph.NodeWebSearch]) == 0 {
		searchKey := apiKeys[KeyRoleWebSearch]
		if shouldSearchWeb(webSearchEnabled(typeIndex), searchKey != "", executionContext.KnowledgeFound) {
			provider := node.StringConfig("webSearchProvider", defaultSearchProvider)
			e.runWebSearch(ctx, provider, searchKey, defaultNumResults, executionContext)
		}
	}

	contextText := ""
	if executionContext.hasUsableKnowledge() {
		contextText = executionContext.KnowledgeContext
	}

	systemPrompt := augmentSystemPrompt(
		node.StringConfig("prompt", defaultSystemPrompt),
		contextText != "",
		executionContext.WebSearchContext != "",
	)

	reply, err := e.generator.Generate(ctx, GenerationRequest{
		Query:        executionContext.Query,
		ContextText:  contextText,
		APIKey:       apiKey,
		Model:        normalized.Model,
		Temperature:  normalized.Temperature,
		SystemPrompt: systemPrompt,
		WebResults:   executionContext.WebSearchContext,
	})
	if err != nil {
		executionContext.LLMResponse = fmt.Sprintf("Error processing LLM request: %v", err)
		e.logger.Warn("LLM generation failed", "node_id", node.ID, "model", normalized.Model, "error", err)
		return
	}

	executionContext.LLMResponse = reply
	e.logger.Info("LLM generated response",
		"provider", string(normalized.Provider),
		"model", normalized.Model,
		"temperature", normalized.Temperature,
	)
}

// webSearchEnabled reads the web-search gate from the llmEngine node's
// configuration. With no llmEngine node the gate is closed.
func webSearchEnabled(typeIndex map[graph.NodeType][]graph.Node) bool {
	for _, node := range typeIndex[graph.NodeLLMEngine] {
		if node.BoolConfig("webSearchEnabled", node.BoolConfig("web_search_enabled", false)) {
			return true
		}
	}
	return false
}

// augmentSystemPrompt appends exactly one of four mutually exclusive
// clauses depending on which context kinds are present.
func augmentSystemPrompt(base string, hasKnowledge, hasWeb bool) string {
	switch {
	case hasKnowledge && hasWeb:
		return base + "\n\nAnswer from the indexed document context first, using the web search results only to supplement it with current information."
	case hasKnowledge:
		return base + "\n\nAnswer strictly from the provided document context."
	case hasWeb:
		return base + "\n\nNo indexed document context matched this question; answer from the web search results."
	default:
		return base + "\n\nNo external context is available; answer from general knowledge and say so when you are unsure."
	}
}

// formatWebResultsForLLM renders search hits into the block folded into
// the generation prompt.
func formatWebResultsForLLM(searchResponse *WebSearchResponse) string {
	if searchResponse == nil || len(searchResponse.Results) == 0 {
		return "No search results found."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Search Query: %s\n\nSearch Results:\n", searchResponse.Query)
	for index, result := range searchResponse.Results {
		fmt.Fprintf(&builder, "%d. %s\n   URL: %s\n   Summary: %s\n\n", index+1, result.Title, result.URL, result.Snippet)
	}
	return builder.String()
}
