package embeddings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmbedQueryOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q, want /embeddings", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3], "index": 0}], "model": "text-embedding-3-large"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	vector, err := client.EmbedQuery(context.Background(), "hello", "sk-test", "text-embedding-3-large")
	if err != nil {
		t.Fatalf("EmbedQuery returned error: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Errorf("vector = %v", vector)
	}
}

func TestEmbedQueryGemini(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":embedContent") {
			t.Errorf("path = %q, want the embedContent endpoint", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "AIzaSyTest" {
			t.Errorf("key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": {"values": [0.5, 0.6]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, "", server.URL)
	vector, err := client.EmbedQuery(context.Background(), "hello", "AIzaSyTest", "models/embedding-001")
	if err != nil {
		t.Fatalf("EmbedQuery returned error: %v", err)
	}
	if len(vector) != 2 || vector[1] != 0.6 {
		t.Errorf("vector = %v", vector)
	}
}

func TestEmbedQueryUnsupportedModel(t *testing.T) {
	client := NewClient()
	_, err := client.EmbedQuery(context.Background(), "hello", "sk-test", "word2vec")
	if err == nil || !strings.Contains(err.Error(), "unsupported embedding model") {
		t.Errorf("err = %v, want the unsupported-model error", err)
	}
}

// newTestClient builds a Client pointed at test servers via the base URL
// environment overrides. An empty override falls back to the provider
// default, which no test should reach.
func newTestClient(t *testing.T, openaiURL, geminiURL string) *Client {
	t.Helper()
	t.Setenv("OPENAI_API_BASE_URL", openaiURL)
	t.Setenv("GEMINI_API_BASE_URL", geminiURL)
	return NewClient()
}
