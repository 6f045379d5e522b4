package graph

import (
	"fmt"
	"sort"
)

// CycleError reports that topological sorting could not order every node,
// which means the graph contains a cycle (or an edge referencing a missing
// node slipped past validation). PartialOrder holds the nodes that were
// ordered before the sort stalled and Unsorted names the nodes left with
// unresolved dependencies, for diagnostics.
type CycleError struct {
	PartialOrder []string
	Unsorted     []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected in workflow graph involving nodes: %v", e.Unsorted)
}

// TopologicalOrder computes the deterministic execution order of the graph
// using Kahn's algorithm: compute in-degrees from edges, seed a FIFO queue
// with all zero-in-degree nodes in insertion order, then repeatedly dequeue,
// append to the result, and enqueue any adjacency target whose in-degree
// drops to zero. Newly freed nodes are sorted by insertion order before
// enqueueing so that independent branches always execute in the same order.
//
// If fewer nodes are ordered than exist in the graph, the graph contains a
// cycle and a *CycleError carrying the partial order is returned. This is
// the sole gate for execution order: no node executes when sorting fails.
func (g *Graph) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	adjacency := make(map[string][]string, len(g.nodes))
	for nodeID := range g.nodes {
		inDegree[nodeID] = 0
	}
	for _, graphEdge := range g.edges {
		adjacency[graphEdge.Source] = append(adjacency[graphEdge.Source], graphEdge.Target)
		inDegree[graphEdge.Target]++
	}

	// Edge iteration over a map is not deterministic, so adjacency lists are
	// normalized to insertion order before use.
	nodePosition := make(map[string]int, len(g.nodeOrder))
	for index, nodeID := range g.nodeOrder {
		nodePosition[nodeID] = index
	}
	for nodeID := range adjacency {
		targets := adjacency[nodeID]
		sort.Slice(targets, func(indexA, indexB int) bool {
			return nodePosition[targets[indexA]] < nodePosition[targets[indexB]]
		})
	}

	queue := make([]string, 0, len(g.nodes))
	for _, nodeID := range g.nodeOrder {
		if inDegree[nodeID] == 0 {
			queue = append(queue, nodeID)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]
		order = append(order, nodeID)

		freed := make([]string, 0)
		for _, target := range adjacency[nodeID] {
			inDegree[target]--
			if inDegree[target] == 0 {
				freed = append(freed, target)
			}
		}
		sort.Slice(freed, func(indexA, indexB int) bool {
			return nodePosition[freed[indexA]] < nodePosition[freed[indexB]]
		})
		queue = append(queue, freed...)
	}

	if len(order) != len(g.nodes) {
		unsorted := make([]string, 0)
		for _, nodeID := range g.nodeOrder {
			if inDegree[nodeID] > 0 {
				unsorted = append(unsorted, nodeID)
			}
		}
		return nil, &CycleError{PartialOrder: order, Unsorted: unsorted}
	}

	return order, nil
}
