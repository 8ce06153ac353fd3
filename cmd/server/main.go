// Package main runs the personal-assistant chat API.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/saidmadi/persona-api/internal/chat"
	"github.com/saidmadi/persona-api/internal/config"
	"github.com/saidmadi/persona-api/internal/embedding"
	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/ingest"
	"github.com/saidmadi/persona-api/internal/knowledge"
	"github.com/saidmadi/persona-api/internal/mcptool"
	"github.com/saidmadi/persona-api/internal/notify"
	"github.com/saidmadi/persona-api/internal/persona"
	"github.com/saidmadi/persona-api/internal/retriever"
	"github.com/saidmadi/persona-api/internal/server"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()
	logger := slog.Default()

	// Initialization order: load profile, attach index, ingest, then serve.
	base, err := knowledge.Load(cfg.KnowledgeDir, logger)
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}

	client, err := embedding.NewClient(cfg.OpenAIKey)
	if err != nil {
		log.Fatalf("failed to create openai client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension)

	idx := index.Open(ctx, index.Options{
		QdrantAddr: cfg.QdrantAddr,
		QdrantKey:  cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  embedder.Dimension(),
	}, logger)

	variant := "memory"
	if q, ok := idx.(*index.Qdrant); ok {
		variant = "qdrant"
		defer q.Close()
	}

	if err := ingestIfNeeded(ctx, cfg, embedder, idx, base, logger); err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	profile := persona.Profile{
		Name:     cfg.AssistantName,
		Summary:  base.Summary,
		LinkedIn: base.LinkedIn,
	}
	assembler := persona.NewAssembler(profile, 0)

	rtr, err := retriever.New(embedder, idx, cfg.TopK)
	if err != nil {
		log.Fatalf("failed to create retriever: %v", err)
	}

	var notifier notify.Notifier
	if cfg.PushoverToken != "" && cfg.PushoverUser != "" {
		notifier = notify.NewPushover(cfg.PushoverToken, cfg.PushoverUser)
	} else {
		notifier = notify.LogOnly{Logger: logger}
	}
	tools := chat.NewTools(notifier, logger)

	completer := &chat.OpenAICompleter{Client: client.Client()}
	orchestrator := chat.New(completer, assembler, rtr, tools, cfg.ChatModel, logger)

	var mcpHandler http.Handler
	if cfg.MCPEnabled {
		mcpHandler = mcptool.NewServer(rtr, orchestrator).HTTPHandler()
	}

	app := server.New(server.Deps{
		Orchestrator: orchestrator,
		Retriever:    rtr,
		Tools:        tools,
		Profile:      profile,
		IndexVariant: variant,
		MCP:          mcpHandler,
		Logger:       logger,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	addr := ":" + cfg.Port
	logger.Info("starting server", "addr", addr, "index", variant, "mcp", cfg.MCPEnabled)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// ingestIfNeeded builds the index at startup. A Qdrant collection that
// already holds points is reused as-is; `kb sync` forces a rebuild.
func ingestIfNeeded(
	ctx context.Context,
	cfg *config.Config,
	embedder *embedding.Embedder,
	idx index.Index,
	base *knowledge.Base,
	logger *slog.Logger,
) error {
	if q, ok := idx.(*index.Qdrant); ok {
		count, err := q.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			logger.Info("reusing existing qdrant collection", "points", count)
			return nil
		}
	}

	pipeline := ingest.New(cfg.ChunkSize, cfg.ChunkOverlap, embedder, idx, logger)
	_, err := pipeline.Run(ctx, base)
	return err
}
