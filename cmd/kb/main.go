// Package main provides the knowledge-base maintenance CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saidmadi/persona-api/internal/config"
	"github.com/saidmadi/persona-api/internal/embedding"
	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/ingest"
	"github.com/saidmadi/persona-api/internal/knowledge"
	"github.com/saidmadi/persona-api/internal/retriever"
)

var rootCmd = &cobra.Command{
	Use:   "kb",
	Short: "Personal knowledge base maintenance tool",
	Long:  "CLI for building and querying the personal knowledge base index",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the Qdrant collection from the knowledge directory",
	Long: `Clears the existing collection and reingests all documents.

This command:
1. Connects to Qdrant and verifies health
2. Clears the existing collection
3. Loads linkedin.pdf, summary.txt, and extra documents
4. Chunks and embeds every document
5. Stores the chunks in Qdrant

Environment variables:
  QDRANT_ADDR     Qdrant gRPC endpoint, host:port (required)
  QDRANT_API_KEY  Qdrant credential (optional)
  OPENAI_API_KEY  OpenAI API key for embeddings (required)
  KNOWLEDGE_DIR   Knowledge directory (default: me)`,
	RunE: runSync,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-off similarity search against the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var searchTopK int

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of results (default from TOP_K)")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()
	cfg := config.Load()

	if cfg.QdrantAddr == "" {
		return fmt.Errorf("QDRANT_ADDR is required for sync")
	}

	fmt.Println("Starting sync...")
	fmt.Println()

	fmt.Printf("Connecting to Qdrant at %s...\n", cfg.QdrantAddr)
	store, err := index.OpenQdrant(ctx, index.QdrantConfig{
		Addr:       cfg.QdrantAddr,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  cfg.EmbeddingDimension,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()
	fmt.Println("Qdrant healthy")

	base, err := knowledge.Load(cfg.KnowledgeDir, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}

	client, err := embedding.NewClient(cfg.OpenAIKey)
	if err != nil {
		return fmt.Errorf("failed to create openai client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension)

	fmt.Println()
	fmt.Println("Clearing existing collection...")
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	fmt.Println("Collection cleared")

	fmt.Println()
	fmt.Println("Indexing documents...")
	pipeline := ingest.New(cfg.ChunkSize, cfg.ChunkOverlap, embedder, store, slog.Default())
	result, err := pipeline.Run(ctx, base)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Documents: %d/%d\n", result.TotalDocs-len(result.FailedDocs), result.TotalDocs)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.Source, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()
	logger := slog.Default()
	query := args[0]

	client, err := embedding.NewClient(cfg.OpenAIKey)
	if err != nil {
		return fmt.Errorf("failed to create openai client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension)

	idx := index.Open(ctx, index.Options{
		QdrantAddr: cfg.QdrantAddr,
		QdrantKey:  cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  embedder.Dimension(),
	}, logger)

	// An unpopulated index (in-memory fallback, or a fresh collection)
	// gets a one-off ingestion so the search has something to hit.
	needIngest := true
	if q, ok := idx.(*index.Qdrant); ok {
		defer q.Close()
		count, err := q.Count(ctx)
		if err != nil {
			return err
		}
		needIngest = count == 0
	}
	if needIngest {
		base, err := knowledge.Load(cfg.KnowledgeDir, logger)
		if err != nil {
			return fmt.Errorf("failed to load knowledge base: %w", err)
		}
		pipeline := ingest.New(cfg.ChunkSize, cfg.ChunkOverlap, embedder, idx, logger)
		if _, err := pipeline.Run(ctx, base); err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	}

	rtr, err := retriever.New(embedder, idx, cfg.TopK)
	if err != nil {
		return err
	}

	results, err := rtr.Query(ctx, query, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s (chunk %d)\n", i+1, r.Score, r.Chunk.Source, r.Chunk.Position)
		fmt.Printf("   %s\n\n", r.Chunk.Text)
	}
	return nil
}
