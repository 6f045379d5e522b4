package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowstack/flowstack/policy"
)

// searchFloor is the permissive search-time similarity cutoff passed to the
// retrieval collaborator. It deliberately under-filters so that the
// semantic threshold computed per query does the real filtering.
const searchFloor = 0.1

// RetrievalResult is the outcome of one orchestrated retrieval: the kept
// chunks, the formatted context text (or the NoKnowledgeSentinel), whether
// anything survived the threshold, and the threshold that was applied.
type RetrievalResult struct {
	Chunks      []Chunk
	ContextText string
	Found       bool
	Threshold   float64
}

// retrievalOrchestrator calls the vector-retrieval collaborator, applies
// the relevance policy, and shapes the result for the prompt.
type retrievalOrchestrator struct {
	retriever Retriever
	policy    *policy.Policy
	logger    *slog.Logger
}

// Retrieve fetches twice the requested chunk count under the permissive
// search floor, computes the per-query threshold, keeps only chunks at or
// above it (preserving the collaborator's descending score order), and
// truncates back to topK. Over-fetching avoids starving the semantic
// filter of candidates.
func (o *retrievalOrchestrator) Retrieve(ctx context.Context, query, stackID, apiKey, model string, topK int) (RetrievalResult, error) {
	if topK <= 0 {
		topK = 5
	}

	raw, err := o.retriever.Search(ctx, SearchRequest{
		StackID:         stackID,
		Query:           query,
		APIKey:          apiKey,
		Model:           model,
		TopK:            topK * 2,
		SimilarityFloor: searchFloor,
	})
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("vector search failed: %w", err)
	}

	threshold, ruleName := o.policy.Classify(query)

	kept := make([]Chunk, 0, topK)
	for _, chunk := range raw {
		if chunk.SimilarityScore >= threshold {
			kept = append(kept, chunk)
		}
		if len(kept) == topK {
			break
		}
	}

	o.logger.Info("retrieval filtered",
		"stack_id", stackID,
		"rule", ruleName,
		"threshold", threshold,
		"raw", len(raw),
		"kept", len(kept),
	)

	return RetrievalResult{
		Chunks:      kept,
		ContextText: buildContextText(kept),
		Found:       len(kept) > 0,
		Threshold:   threshold,
	}, nil
}

// shouldSearchWeb is the web-search fallback decision: live search runs if
// and only if it is enabled on the LLM node's configuration, a search
// provider key is present, and retrieval found nothing above threshold.
// Indexed context always takes priority over live search.
func shouldSearchWeb(enabled, keyPresent, knowledgeFound bool) bool {
	return enabled && keyPresent && !knowledgeFound
}
