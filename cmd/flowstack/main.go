// Command flowstack executes a stored workflow against a query and
// prints the result as JSON.
//
// Workflow documents live as JSON files in the workflows directory, one
// per stack. Provider credentials come from the environment (see the
// store package for the variable names); a .env file in the working
// directory is loaded if present.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/providers/embeddings"
	"github.com/flowstack/flowstack/providers/generation"
	"github.com/flowstack/flowstack/providers/retrieval/pgvector"
	"github.com/flowstack/flowstack/providers/websearch"
	"github.com/flowstack/flowstack/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	workflowsDir := flag.String("workflows", "workflows", "directory of workflow JSON files, one <stackID>.json per stack")
	stackID := flag.String("stack", "", "stack whose workflow to execute")
	query := flag.String("query", "", "user query to run through the workflow")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *stackID == "" || *query == "" {
		flag.Usage()
		return fmt.Errorf("both -stack and -query are required")
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for knowledge retrieval")
	}
	retriever, err := pgvector.Connect(ctx, databaseURL, embeddings.NewClient(), logger)
	if err != nil {
		return err
	}
	defer retriever.Close()

	workflowEngine := engine.New(engine.Config{
		Store:       store.NewFileStore(*workflowsDir, logger),
		Keys:        store.EnvKeyStore{},
		Retriever:   retriever,
		Generator:   generation.NewRouter(logger),
		WebSearcher: websearch.NewService(),
		Logger:      logger,
	})

	response := workflowEngine.Execute(ctx, *stackID, *query)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	if response.Error {
		os.Exit(1)
	}
	return nil
}
