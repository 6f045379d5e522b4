// Package graph defines the stored workflow definition: a directed acyclic
// graph of typed processing nodes connected by edges, as produced by the
// visual workflow editor. It validates graph structure and computes the
// deterministic execution order used by the engine.
package graph

import (
	"fmt"
	"strconv"
)

// NodeType identifies the processing behavior of a node. The set of types is
// fixed and closed; definitions carrying any other type string fail
// validation instead of being silently skipped.
type NodeType string

const (
	// NodeUserQuery is the entry point that receives the user's question.
	NodeUserQuery NodeType = "userQuery"

	// NodeKnowledgeBase retrieves indexed document context for the query.
	NodeKnowledgeBase NodeType = "knowledgeBase"

	// NodeLLMEngine generates an answer from the accumulated context.
	NodeLLMEngine NodeType = "llmEngine"

	// NodeWebSearch performs a live web search when indexed context is
	// insufficient.
	NodeWebSearch NodeType = "webSearch"

	// NodeOutput assembles the final answer and response metadata.
	NodeOutput NodeType = "output"
)

// ParseNodeType converts a stored type string into a NodeType.
// Unknown strings are an error, never a skip.
func ParseNodeType(raw string) (NodeType, error) {
	switch NodeType(raw) {
	case NodeUserQuery, NodeKnowledgeBase, NodeLLMEngine, NodeWebSearch, NodeOutput:
		return NodeType(raw), nil
	default:
		return "", fmt.Errorf("unrecognized node type %q", raw)
	}
}

// Node is a single processing step in a workflow definition. Config carries
// the editor-supplied settings (model, temperature, top_k, ...) as loosely
// typed values; use the *Config accessors to read them.
type Node struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge is a directed connection between two nodes: Source must complete
// before Target executes. Multiple edges may share a source or a target.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is a validated workflow definition. Nodes and Edges are keyed by
// their IDs; nodeOrder preserves the order nodes were added, which is the
// tie-break used to keep topological sorting deterministic.
//
// A Graph is read-only once built. The engine never mutates it during
// execution, so a single Graph may back any number of concurrent runs.
type Graph struct {
	nodes     map[string]Node
	edges     map[string]Edge
	nodeOrder []string
}

// New builds a Graph from node and edge lists, preserving the given node
// order, and validates it. It returns an error if any structural invariant
// is violated: duplicate node IDs, dangling edge endpoints, unknown node
// types, or a missing userQuery/output pair.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	built := &Graph{
		nodes:     make(map[string]Node, len(nodes)),
		edges:     make(map[string]Edge, len(edges)),
		nodeOrder: make([]string, 0, len(nodes)),
	}

	for _, graphNode := range nodes {
		if graphNode.ID == "" {
			return nil, fmt.Errorf("node with empty ID")
		}
		if _, exists := built.nodes[graphNode.ID]; exists {
			return nil, fmt.Errorf("duplicate node ID %q", graphNode.ID)
		}
		built.nodes[graphNode.ID] = graphNode
		built.nodeOrder = append(built.nodeOrder, graphNode.ID)
	}

	for _, graphEdge := range edges {
		if _, exists := built.edges[graphEdge.ID]; exists {
			return nil, fmt.Errorf("duplicate edge ID %q", graphEdge.ID)
		}
		built.edges[graphEdge.ID] = graphEdge
	}

	if err := built.Validate(); err != nil {
		return nil, err
	}

	return built, nil
}

// Validate checks the structural invariants of the graph:
//
//  1. Every edge's source and target reference existing nodes
//  2. Every node carries a recognized type
//  3. At least one userQuery node and one output node exist
//
// Acyclicity is not checked here; it is established by TopologicalOrder,
// which is the sole gate for execution order.
func (g *Graph) Validate() error {
	for _, graphEdge := range g.edges {
		if _, exists := g.nodes[graphEdge.Source]; !exists {
			return fmt.Errorf("edge %q references non-existent source node %q", graphEdge.ID, graphEdge.Source)
		}
		if _, exists := g.nodes[graphEdge.Target]; !exists {
			return fmt.Errorf("edge %q references non-existent target node %q", graphEdge.ID, graphEdge.Target)
		}
	}

	hasUserQuery := false
	hasOutput := false
	for _, nodeID := range g.nodeOrder {
		graphNode := g.nodes[nodeID]
		if _, err := ParseNodeType(string(graphNode.Type)); err != nil {
			return fmt.Errorf("node %q: %w", nodeID, err)
		}
		switch graphNode.Type {
		case NodeUserQuery:
			hasUserQuery = true
		case NodeOutput:
			hasOutput = true
		}
	}

	if !hasUserQuery {
		return fmt.Errorf("workflow has no userQuery node")
	}
	if !hasOutput {
		return fmt.Errorf("workflow has no output node")
	}

	return nil
}

// Node returns the node with the given ID and whether it exists.
func (g *Graph) Node(nodeID string) (Node, bool) {
	graphNode, exists := g.nodes[nodeID]
	return graphNode, exists
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NodeIDs returns all node IDs in insertion order. The returned slice is a
// copy and safe to modify.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodeOrder))
	copy(ids, g.nodeOrder)
	return ids
}

// StringConfig reads a string config value from the node, falling back to
// fallback when the key is missing or holds a non-string or empty value.
func (n Node) StringConfig(key, fallback string) string {
	raw, exists := n.Config[key]
	if !exists {
		return fallback
	}
	value, isString := raw.(string)
	if !isString || value == "" {
		return fallback
	}
	return value
}

// IntConfig reads an integer config value from the node. JSON decoding
// produces float64 for numbers, so both forms are accepted; anything else
// yields fallback.
func (n Node) IntConfig(key string, fallback int) int {
	raw, exists := n.Config[key]
	if !exists {
		return fallback
	}
	switch value := raw.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// BoolConfig reads a boolean config value from the node. String forms
// ("true"/"false") produced by the editor are accepted; anything else
// yields fallback.
func (n Node) BoolConfig(key string, fallback bool) bool {
	raw, exists := n.Config[key]
	if !exists {
		return fallback
	}
	switch value := raw.(type) {
	case bool:
		return value
	case string:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}
