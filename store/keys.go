package store

import (
	"context"
	"os"

	"github.com/flowstack/flowstack/engine"
)

// Environment variables read by EnvKeyStore.
const (
	EnvLLMKey       = "FLOWSTACK_LLM_API_KEY"
	EnvKnowledgeKey = "FLOWSTACK_KNOWLEDGE_API_KEY"
	EnvWebSearchKey = "FLOWSTACK_WEBSEARCH_API_KEY"
)

// EnvKeyStore resolves provider credentials from the environment. It
// serves single-tenant deployments where every stack shares one set of
// keys; multi-tenant deployments plug in their own KeyStore instead.
//
// The knowledge role falls back to the LLM key when unset, since both
// are commonly the same OpenAI credential.
type EnvKeyStore struct{}

var _ engine.KeyStore = EnvKeyStore{}

// DecryptedKeys returns the configured role keys. Unset roles are
// simply absent from the map.
func (EnvKeyStore) DecryptedKeys(_ context.Context, _ string) (map[engine.KeyRole]string, error) {
	keys := make(map[engine.KeyRole]string)
	if llmKey := os.Getenv(EnvLLMKey); llmKey != "" {
		keys[engine.KeyRoleLLM] = llmKey
	}
	if knowledgeKey := os.Getenv(EnvKnowledgeKey); knowledgeKey != "" {
		keys[engine.KeyRoleKnowledge] = knowledgeKey
	} else if llmKey, ok := keys[engine.KeyRoleLLM]; ok {
		keys[engine.KeyRoleKnowledge] = llmKey
	}
	if searchKey := os.Getenv(EnvWebSearchKey); searchKey != "" {
		keys[engine.KeyRoleWebSearch] = searchKey
	}
	return keys, nil
}
