package engine

// assembleFinalOutput derives the answer from the terminal context state.
// Priority: the model reply if non-empty; else genuine knowledge context
// behind a fallback prefix; else the fixed no-answer message.
func assembleFinalOutput(executionContext *ExecutionContext) string {
	if executionContext.LLMResponse != "" {
		return executionContext.LLMResponse
	}
	if executionContext.hasUsableKnowledge() {
		return "Based on the available information:\n\n" + executionContext.KnowledgeContext
	}
	return NoAnswerMessage
}

// assembleSummary derives the response metadata from the terminal context
// state: the executed node types in order, how many chunks fed the answer,
// how many distinct source URLs contributed, and whether knowledge or web
// context was present at all.
func assembleSummary(executionContext *ExecutionContext) *ExecutionSummary {
	flow := make([]string, len(executionContext.ExecutionFlow))
	copy(flow, executionContext.ExecutionFlow)

	return &ExecutionSummary{
		ExecutionFlow: flow,
		ChunkCount:    len(executionContext.Chunks),
		SourceCount:   len(executionContext.distinctSources()),
		HasKnowledge:  executionContext.hasUsableKnowledge(),
		HasWebContext: executionContext.WebSearchContext != "",
	}
}
