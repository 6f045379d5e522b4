package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/graph"
)

const workflowDocument = `{
	"id": "wf-42",
	"nodes": {
		"u1": {"type": "userQuery"},
		"k1": {"type": "knowledgeBase", "config": {"top_k": 3}},
		"l1": {"type": "llmEngine", "data": {"model": "gpt-4o"}},
		"o1": {"type": "output"}
	},
	"edges": {
		"e1": {"source": "u1", "target": "k1"},
		"e2": {"source": "k1", "target": "l1"},
		"e3": {"source": "l1", "target": "o1"}
	}
}`

func TestDecodeWorkflow(t *testing.T) {
	workflow, err := DecodeWorkflow([]byte(workflowDocument), "fallback")
	if err != nil {
		t.Fatalf("DecodeWorkflow returned error: %v", err)
	}

	if workflow.ID != "wf-42" {
		t.Errorf("ID = %q, want wf-42", workflow.ID)
	}
	if workflow.Graph.Len() != 4 {
		t.Errorf("node count = %d, want 4", workflow.Graph.Len())
	}

	node, exists := workflow.Graph.Node("k1")
	if !exists {
		t.Fatal("node k1 missing")
	}
	if got := node.IntConfig("top_k", 0); got != 3 {
		t.Errorf("k1 top_k = %d, want 3", got)
	}

	// "data" is the older editor spelling of "config".
	llmNode, _ := workflow.Graph.Node("l1")
	if got := llmNode.StringConfig("model", ""); got != "gpt-4o" {
		t.Errorf("l1 model = %q, want gpt-4o", got)
	}
}

func TestDecodeWorkflowPreservesNodeOrder(t *testing.T) {
	// The JSON object key order is the deterministic execution tie-break; a
	// map decode would destroy it.
	document := `{
		"nodes": {
			"zeta": {"type": "userQuery"},
			"alpha": {"type": "knowledgeBase"},
			"mid": {"type": "llmEngine"},
			"aaa": {"type": "output"}
		},
		"edges": {}
	}`
	workflow, err := DecodeWorkflow([]byte(document), "wf-1")
	if err != nil {
		t.Fatal(err)
	}

	got := workflow.Graph.NodeIDs()
	want := []string{"zeta", "alpha", "mid", "aaa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NodeIDs = %v, want declaration order %v", got, want)
	}
}

func TestDecodeWorkflowRepairsSloppyJSON(t *testing.T) {
	// Trailing commas and unquoted keys show up in hand-edited documents.
	document := `{
		nodes: {
			"u1": {type: "userQuery"},
			"o1": {type: "output"},
		},
		edges: {},
	}`
	workflow, err := DecodeWorkflow([]byte(document), "wf-1")
	if err != nil {
		t.Fatalf("DecodeWorkflow failed on repairable JSON: %v", err)
	}
	if workflow.Graph.Len() != 2 {
		t.Errorf("node count = %d, want 2", workflow.Graph.Len())
	}
}

func TestDecodeWorkflowRejectsInvalidGraph(t *testing.T) {
	document := `{
		"nodes": {"u1": {"type": "userQuery"}},
		"edges": {}
	}`
	_, err := DecodeWorkflow([]byte(document), "wf-1")
	if err == nil {
		t.Fatal("DecodeWorkflow accepted a workflow with no output node")
	}
}

func TestDecodeWorkflowFallbackID(t *testing.T) {
	document := `{
		"nodes": {"u1": {"type": "userQuery"}, "o1": {"type": "output"}},
		"edges": {}
	}`
	workflow, err := DecodeWorkflow([]byte(document), "stack-7")
	if err != nil {
		t.Fatal(err)
	}
	if workflow.ID != "stack-7" {
		t.Errorf("ID = %q, want the fallback stack ID", workflow.ID)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stack-1.json"), []byte(workflowDocument), 0o600); err != nil {
		t.Fatal(err)
	}

	fileStore := NewFileStore(dir, nil)

	workflow, err := fileStore.GetWorkflow(context.Background(), "stack-1")
	if err != nil {
		t.Fatalf("GetWorkflow returned error: %v", err)
	}
	if workflow.ID != "wf-42" {
		t.Errorf("ID = %q, want wf-42", workflow.ID)
	}

	_, err = fileStore.GetWorkflow(context.Background(), "stack-2")
	if !errors.Is(err, engine.ErrWorkflowNotFound) {
		t.Errorf("missing file error = %v, want ErrWorkflowNotFound", err)
	}

	_, err = fileStore.GetWorkflow(context.Background(), "../escape")
	if err == nil || errors.Is(err, engine.ErrWorkflowNotFound) {
		t.Errorf("path traversal error = %v, want a validation error", err)
	}
}

func TestMemoryStore(t *testing.T) {
	memoryStore := NewMemoryStore()

	_, err := memoryStore.GetWorkflow(context.Background(), "stack-1")
	if !errors.Is(err, engine.ErrWorkflowNotFound) {
		t.Fatalf("empty store error = %v, want ErrWorkflowNotFound", err)
	}

	workflowGraph, err := graph.New(
		[]graph.Node{
			{ID: "u1", Type: graph.NodeUserQuery},
			{ID: "o1", Type: graph.NodeOutput},
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	memoryStore.Put("stack-1", &engine.StoredWorkflow{ID: "wf-1", Graph: workflowGraph})

	workflow, err := memoryStore.GetWorkflow(context.Background(), "stack-1")
	if err != nil {
		t.Fatal(err)
	}
	if workflow.ID != "wf-1" {
		t.Errorf("ID = %q, want wf-1", workflow.ID)
	}
}

func TestEnvKeyStore(t *testing.T) {
	t.Setenv(EnvLLMKey, "sk-llm")
	t.Setenv(EnvKnowledgeKey, "")
	t.Setenv(EnvWebSearchKey, "serp-key")

	keys, err := EnvKeyStore{}.DecryptedKeys(context.Background(), "wf-1")
	if err != nil {
		t.Fatal(err)
	}

	if keys[engine.KeyRoleLLM] != "sk-llm" {
		t.Errorf("llm key = %q", keys[engine.KeyRoleLLM])
	}
	// Knowledge falls back to the LLM key when unset.
	if keys[engine.KeyRoleKnowledge] != "sk-llm" {
		t.Errorf("knowledge key = %q, want the LLM fallback", keys[engine.KeyRoleKnowledge])
	}
	if keys[engine.KeyRoleWebSearch] != "serp-key" {
		t.Errorf("websearch key = %q", keys[engine.KeyRoleWebSearch])
	}
}
