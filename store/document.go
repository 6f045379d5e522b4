// Package store provides workflow definition storage and credential
// resolution for the engine. Workflow documents are the JSON emitted by
// the visual editor: node and edge objects keyed by ID.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kaptinlin/jsonrepair"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/graph"
)

// rawNode is the editor's node value. Older exports use "data" instead
// of "config" for the settings object.
type rawNode struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
	Data   map[string]any `json:"data"`
}

type rawEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// DecodeWorkflow parses an editor workflow document into a validated
// StoredWorkflow. Node declaration order is preserved, since it is the
// deterministic tie-break for execution ordering. Documents that fail
// strict JSON parsing are repaired and retried once before giving up.
func DecodeWorkflow(data []byte, fallbackID string) (*engine.StoredWorkflow, error) {
	workflow, err := decodeDocument(data, fallbackID)
	if err == nil {
		return workflow, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return nil, fmt.Errorf("invalid workflow document: %w", err)
	}
	workflow, retryErr := decodeDocument([]byte(repaired), fallbackID)
	if retryErr != nil {
		return nil, fmt.Errorf("invalid workflow document after repair: %w", retryErr)
	}
	return workflow, nil
}

func decodeDocument(data []byte, fallbackID string) (*engine.StoredWorkflow, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(decoder, '{'); err != nil {
		return nil, fmt.Errorf("workflow document must be a JSON object: %w", err)
	}

	var (
		workflowID string
		nodes      []graph.Node
		edges      []graph.Edge
	)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in workflow document", token)
		}

		switch key {
		case "id":
			if err := decoder.Decode(&workflowID); err != nil {
				return nil, fmt.Errorf("decoding workflow id: %w", err)
			}
		case "nodes":
			nodes, err = decodeNodes(decoder)
			if err != nil {
				return nil, err
			}
		case "edges":
			edges, err = decodeEdges(decoder)
			if err != nil {
				return nil, err
			}
		default:
			var skipped json.RawMessage
			if err := decoder.Decode(&skipped); err != nil {
				return nil, fmt.Errorf("skipping field %q: %w", key, err)
			}
		}
	}

	workflowGraph, err := graph.New(nodes, edges)
	if err != nil {
		return nil, err
	}
	if workflowID == "" {
		workflowID = fallbackID
	}
	return &engine.StoredWorkflow{ID: workflowID, Graph: workflowGraph}, nil
}

// decodeNodes walks the nodes object token by token so that the JSON
// key order survives into the node slice. A plain map decode would lose
// it and make execution order depend on map iteration.
func decodeNodes(decoder *json.Decoder) ([]graph.Node, error) {
	if err := expectDelim(decoder, '{'); err != nil {
		return nil, fmt.Errorf("nodes must be an object keyed by node ID: %w", err)
	}

	var nodes []graph.Node
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		nodeID, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in nodes object", token)
		}

		var raw rawNode
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding node %q: %w", nodeID, err)
		}
		config := raw.Config
		if config == nil {
			config = raw.Data
		}
		nodes = append(nodes, graph.Node{
			ID:     nodeID,
			Type:   graph.NodeType(raw.Type),
			Config: config,
		})
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// decodeEdges reads the edges object as a map and sorts by edge ID.
// Edge order has no execution semantics, sorting just keeps validation
// errors reproducible.
func decodeEdges(decoder *json.Decoder) ([]graph.Edge, error) {
	var rawEdges map[string]rawEdge
	if err := decoder.Decode(&rawEdges); err != nil {
		return nil, fmt.Errorf("decoding edges: %w", err)
	}

	edgeIDs := make([]string, 0, len(rawEdges))
	for edgeID := range rawEdges {
		edgeIDs = append(edgeIDs, edgeID)
	}
	sort.Strings(edgeIDs)

	edges := make([]graph.Edge, 0, len(rawEdges))
	for _, edgeID := range edgeIDs {
		edges = append(edges, graph.Edge{
			ID:     edgeID,
			Source: rawEdges[edgeID].Source,
			Target: rawEdges[edgeID].Target,
		})
	}
	return edges, nil
}

func expectDelim(decoder *json.Decoder, want json.Delim) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	delim, ok := token.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, token)
	}
	return nil
}
