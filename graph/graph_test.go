package graph

import (
	"strings"
	"testing"
)

func linearWorkflowNodes() []Node {
	return []Node{
		{ID: "u1", Type: NodeUserQuery},
		{ID: "k1", Type: NodeKnowledgeBase},
		{ID: "l1", Type: NodeLLMEngine},
		{ID: "o1", Type: NodeOutput},
	}
}

func linearWorkflowEdges() []Edge {
	return []Edge{
		{ID: "e1", Source: "u1", Target: "k1"},
		{ID: "e2", Source: "k1", Target: "l1"},
		{ID: "e3", Source: "l1", Target: "o1"},
	}
}

func TestNewValidWorkflow(t *testing.T) {
	workflow, err := New(linearWorkflowNodes(), linearWorkflowEdges())
	if err != nil {
		t.Fatalf("New returned error for a valid workflow: %v", err)
	}
	if workflow.Len() != 4 {
		t.Errorf("Len() = %d, want 4", workflow.Len())
	}

	node, exists := workflow.Node("l1")
	if !exists {
		t.Fatal("Node(l1) not found")
	}
	if node.Type != NodeLLMEngine {
		t.Errorf("node l1 type = %q, want %q", node.Type, NodeLLMEngine)
	}
}

func TestNewRejectsInvalidStructures(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		edges   []Edge
		wantErr string
	}{
		{
			name: "duplicate node ID",
			nodes: []Node{
				{ID: "u1", Type: NodeUserQuery},
				{ID: "u1", Type: NodeOutput},
			},
			wantErr: "duplicate node ID",
		},
		{
			name: "empty node ID",
			nodes: []Node{
				{ID: "", Type: NodeUserQuery},
			},
			wantErr: "empty ID",
		},
		{
			name: "unknown node type",
			nodes: []Node{
				{ID: "u1", Type: NodeUserQuery},
				{ID: "x1", Type: NodeType("imageGen")},
				{ID: "o1", Type: NodeOutput},
			},
			wantErr: "unrecognized node type",
		},
		{
			name: "dangling edge source",
			nodes: []Node{
				{ID: "u1", Type: NodeUserQuery},
				{ID: "o1", Type: NodeOutput},
			},
			edges:   []Edge{{ID: "e1", Source: "ghost", Target: "o1"}},
			wantErr: "non-existent source",
		},
		{
			name: "dangling edge target",
			nodes: []Node{
				{ID: "u1", Type: NodeUserQuery},
				{ID: "o1", Type: NodeOutput},
			},
			edges:   []Edge{{ID: "e1", Source: "u1", Target: "ghost"}},
			wantErr: "non-existent target",
		},
		{
			name: "missing userQuery node",
			nodes: []Node{
				{ID: "l1", Type: NodeLLMEngine},
				{ID: "o1", Type: NodeOutput},
			},
			wantErr: "no userQuery node",
		},
		{
			name: "missing output node",
			nodes: []Node{
				{ID: "u1", Type: NodeUserQuery},
				{ID: "l1", Type: NodeLLMEngine},
			},
			wantErr: "no output node",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.nodes, test.edges)
			if err == nil {
				t.Fatal("New succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, test.wantErr)
			}
		})
	}
}

func TestParseNodeType(t *testing.T) {
	for _, valid := range []string{"userQuery", "knowledgeBase", "llmEngine", "webSearch", "output"} {
		if _, err := ParseNodeType(valid); err != nil {
			t.Errorf("ParseNodeType(%q) returned error: %v", valid, err)
		}
	}
	if _, err := ParseNodeType("UserQuery"); err == nil {
		t.Error("ParseNodeType is case-sensitive; expected error for \"UserQuery\"")
	}
	if _, err := ParseNodeType("speech"); err == nil {
		t.Error("ParseNodeType accepted an unknown type")
	}
}

func TestNodeIDsPreservesInsertionOrder(t *testing.T) {
	workflow, err := New(linearWorkflowNodes(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := workflow.NodeIDs()
	want := []string{"u1", "k1", "l1", "o1"}
	for index := range want {
		if got[index] != want[index] {
			t.Fatalf("NodeIDs() = %v, want %v", got, want)
		}
	}
}

func TestConfigAccessors(t *testing.T) {
	node := Node{
		ID:   "l1",
		Type: NodeLLMEngine,
		Config: map[string]any{
			"model":       "gpt-4o",
			"top_k":       float64(3),
			"num_results": "7",
			"enabled":     "true",
			"flag":        false,
			"blank":       "",
		},
	}

	if got := node.StringConfig("model", "fallback"); got != "gpt-4o" {
		t.Errorf("StringConfig(model) = %q", got)
	}
	if got := node.StringConfig("blank", "fallback"); got != "fallback" {
		t.Errorf("StringConfig(blank) = %q, want fallback", got)
	}
	if got := node.StringConfig("missing", "fallback"); got != "fallback" {
		t.Errorf("StringConfig(missing) = %q, want fallback", got)
	}
	if got := node.IntConfig("top_k", 5); got != 3 {
		t.Errorf("IntConfig(top_k) = %d, want 3 (JSON float form)", got)
	}
	if got := node.IntConfig("num_results", 5); got != 7 {
		t.Errorf("IntConfig(num_results) = %d, want 7 (string form)", got)
	}
	if got := node.IntConfig("model", 5); got != 5 {
		t.Errorf("IntConfig(model) = %d, want fallback 5", got)
	}
	if !node.BoolConfig("enabled", false) {
		t.Error("BoolConfig(enabled) = false, want true (string form)")
	}
	if node.BoolConfig("flag", true) {
		t.Error("BoolConfig(flag) = true, want false")
	}
	if !node.BoolConfig("missing", true) {
		t.Error("BoolConfig(missing) = false, want fallback true")
	}
}
