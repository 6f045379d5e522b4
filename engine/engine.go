// Package engine turns a stored workflow graph into a deterministic
// execution order, dispatches each node type against a shared execution
// context, and implements the retrieval-augmented-generation policy that
// decides at run time whether to trust indexed document context or fall
// back to live web search.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowstack/flowstack/graph"
	"github.com/flowstack/flowstack/policy"
	"github.com/flowstack/flowstack/providers/ai"
)

// Config carries the collaborators and tunables for an Engine. Store,
// Keys, Retriever and Generator are required for a fully functional
// engine; WebSearcher may be nil when live search is not configured.
// Policy, Normalizer and Logger fall back to defaults when nil.
type Config struct {
	Store       WorkflowStore
	Keys        KeyStore
	Retriever   Retriever
	Generator   Generator
	WebSearcher WebSearcher
	Policy      *policy.Policy
	Normalizer  *ai.Normalizer
	Logger      *slog.Logger
}

// Engine executes stored workflows. All collaborators are injected through
// New; the engine holds no process-wide state, so a single instance safely
// serves concurrent executions, each of which owns its own
// ExecutionContext.
type Engine struct {
	store       WorkflowStore
	keys        KeyStore
	generator   Generator
	webSearcher WebSearcher
	retrieval   *retrievalOrchestrator
	normalizer  *ai.Normalizer
	logger      *slog.Logger
}

// New creates an Engine from the given configuration.
func New(config Config) *Engine {
	relevancePolicy := config.Policy
	if relevancePolicy == nil {
		relevancePolicy = policy.Default()
	}
	normalizer := config.Normalizer
	if normalizer == nil {
		normalizer = ai.DefaultNormalizer()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:       config.Store,
		keys:        config.Keys,
		generator:   config.Generator,
		webSearcher: config.WebSearcher,
		retrieval: &retrievalOrchestrator{
			retriever: config.Retriever,
			policy:    relevancePolicy,
			logger:    logger,
		},
		normalizer: normalizer,
		logger:     logger,
	}
}

// Response is the standard result shape of one workflow execution. Callers
// never receive a raw error: Error distinguishes hard failures from
// degraded-but-completed runs, and ExecutionTime is always populated, even
// on failure.
type Response struct {
	Result        string   `json:"result"`
	ExecutionTime float64  `json:"execution_time"`
	SourcesUsed   []string `json:"sources_used"`
	ContextChunks []string `json:"context_chunks"`
	ExecutionFlow []string `json:"execution_flow"`
	Error         bool     `json:"error,omitempty"`
}

// Execute runs the workflow stored for stackID against the query.
//
// Fatal failures (workflow not found, graph fails topological sort) abort
// immediately with Error=true. Per-node failures degrade in place: the
// affected node writes a placeholder into its context field and dispatch
// continues, so the output node still produces a best-effort answer. Any
// panic during dispatch is caught here and converted into the standard
// error response with elapsed time measured up to the failure point.
func (e *Engine) Execute(ctx context.Context, stackID, query string) (response Response) {
	started := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.Error("workflow execution panicked", "stack_id", stackID, "panic", recovered)
			response = e.errorResponse(fmt.Errorf("internal error: %v", recovered), started)
		}
	}()

	workflow, err := e.store.GetWorkflow(ctx, stackID)
	if err != nil {
		if errors.Is(err, ErrWorkflowNotFound) {
			return e.errorResponse(fmt.Errorf("no workflow found for stack %s", stackID), started)
		}
		return e.errorResponse(fmt.Errorf("loading workflow: %w", err), started)
	}

	order, err := workflow.Graph.TopologicalOrder()
	if err != nil {
		var cycleErr *graph.CycleError
		if errors.As(err, &cycleErr) {
			e.logger.Error("workflow graph is cyclic",
				"stack_id", stackID,
				"partial_order", cycleErr.PartialOrder,
				"unsorted", cycleErr.Unsorted,
			)
		}
		return e.errorResponse(fmt.Errorf("cannot determine a valid execution order for the workflow: %w", err), started)
	}

	apiKeys, err := e.keys.DecryptedKeys(ctx, workflow.ID)
	if err != nil {
		// Missing credentials degrade per node rather than aborting the run.
		e.logger.Warn("failed to load workflow keys", "workflow_id", workflow.ID, "error", err)
		apiKeys = map[KeyRole]string{}
	}

	e.logger.Info("executing workflow",
		"stack_id", stackID,
		"workflow_id", workflow.ID,
		"nodes", len(order),
	)

	executionContext := newExecutionContext(stackID, query)
	e.dispatch(ctx, workflow.Graph, order, executionContext, apiKeys)

	return e.buildResponse(executionContext, started)
}

// errorResponse shapes a fatal failure into the standard response.
func (e *Engine) errorResponse(err error, started time.Time) Response {
	e.logger.Error("workflow execution failed", "error", err)
	return Response{
		Result:        fmt.Sprintf("Error executing workflow: %v", err),
		ExecutionTime: time.Since(started).Seconds(),
		SourcesUsed:   []string{},
		ContextChunks: []string{},
		ExecutionFlow: []string{},
		Error:         true,
	}
}

// buildResponse derives the caller-facing response from the terminal
// context state.
func (e *Engine) buildResponse(executionContext *ExecutionContext, started time.Time) Response {
	chunkStrings := make([]string, 0, len(executionContext.Chunks))
	for _, chunk := range executionContext.Chunks {
		chunkStrings = append(chunkStrings, formatChunkForResponse(chunk))
	}

	result := executionContext.FinalOutput
	if result == "" {
		// No output node ran (validation guarantees one exists, but a
		// degraded run may still end without FinalOutput being set).
		result = assembleFinalOutput(executionContext)
	}

	return Response{
		Result:        result,
		ExecutionTime: time.Since(started).Seconds(),
		SourcesUsed:   executionContext.distinctSources(),
		ContextChunks: chunkStrings,
		ExecutionFlow: executionContext.ExecutionFlow,
	}
}
