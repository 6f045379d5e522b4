// Package pgvector retrieves document chunks from a Postgres database
// using the pgvector extension for similarity search. Each stack owns
// one table of embedded chunks, created on first use.
package pgvector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/providers/embeddings"
)

// Store implements engine.Retriever on top of a pgxpool connection.
type Store struct {
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
	logger   *slog.Logger

	mu     sync.Mutex
	tables map[string]string
}

var _ engine.Retriever = (*Store)(nil)

// New wires a Store to an existing connection pool. The embedder turns
// queries into vectors before they hit the database.
func New(pool *pgxpool.Pool, embedder embeddings.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:     pool,
		embedder: embedder,
		logger:   logger,
		tables:   make(map[string]string),
	}
}

// Connect opens a pgxpool against databaseURL and returns a ready Store.
func Connect(ctx context.Context, databaseURL string, embedder embeddings.Embedder, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return New(pool, embedder, logger), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Search embeds the query and returns the chunks closest to it, most
// similar first. Distances are converted to similarity scores in (0, 1]
// and chunks below the request floor are dropped.
func (s *Store) Search(ctx context.Context, request engine.SearchRequest) ([]engine.Chunk, error) {
	table, err := s.ensureTable(ctx, request.StackID)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedQuery(ctx, request.Query, request.APIKey, request.Model)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, content, source, embedding <-> $1 AS distance FROM %s ORDER BY embedding <-> $1 LIMIT $2",
		table)
	rows, err := s.pool.Query(ctx, query, pgv.NewVector(vector), request.TopK)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	var chunks []engine.Chunk
	for rows.Next() {
		var (
			id       string
			content  string
			source   string
			distance float64
		)
		if err := rows.Scan(&id, &content, &source, &distance); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		similarity := 1.0 / (1.0 + distance)
		if similarity < request.SimilarityFloor {
			continue
		}
		chunks = append(chunks, engine.Chunk{
			ID:              id,
			Text:            content,
			SourceLabel:     source,
			SimilarityScore: similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk rows: %w", err)
	}

	s.logger.Debug("vector search complete",
		slog.String("stack_id", request.StackID),
		slog.Int("chunks", len(chunks)))
	return chunks, nil
}

// InsertChunk stores a chunk and its embedding in the stack's table.
func (s *Store) InsertChunk(ctx context.Context, stackID string, chunk engine.Chunk, embedding []float32) error {
	table, err := s.ensureTable(ctx, stackID)
	if err != nil {
		return err
	}
	statement := fmt.Sprintf(
		"INSERT INTO %s (id, content, source, embedding) VALUES ($1, $2, $3, $4)",
		table)
	_, err = s.pool.Exec(ctx, statement, chunk.ID, chunk.Text, chunk.SourceLabel, pgv.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// ensureTable returns the chunk table for a stack, creating it on first
// use. The name is cached so the DDL runs at most once per process.
func (s *Store) ensureTable(ctx context.Context, stackID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.tables[stackID]; ok {
		return table, nil
	}

	table := "chunks_" + sanitizeIdentifier(stackID)
	statement := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, content TEXT NOT NULL, source TEXT NOT NULL DEFAULT '', embedding vector)",
		table)
	if _, err := s.pool.Exec(ctx, statement); err != nil {
		return "", fmt.Errorf("creating chunk table for stack %s: %w", stackID, err)
	}

	s.tables[stackID] = table
	return table, nil
}

// sanitizeIdentifier maps a stack ID onto a safe SQL identifier.
func sanitizeIdentifier(stackID string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(stackID) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	if builder.Len() == 0 {
		return "default"
	}
	return builder.String()
}
