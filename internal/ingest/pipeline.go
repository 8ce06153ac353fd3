// Package ingest builds the vector index from the knowledge base:
// load -> chunk -> embed -> insert. It runs synchronously at startup before
// the retrieval endpoint accepts traffic.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saidmadi/persona-api/internal/chunker"
	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/knowledge"
)

// Embedder is the batch capability the pipeline needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Result reports statistics for one ingestion run.
type Result struct {
	TotalDocs   int
	TotalChunks int
	FailedDocs  []FailedDoc
	Duration    time.Duration
}

// FailedDoc records a document that could not be ingested.
type FailedDoc struct {
	Source string
	Reason string
}

// Pipeline wires the chunkers, embedder, and target index together.
type Pipeline struct {
	chunkSize    int
	chunkOverlap int
	markdown     *chunker.Markdown
	embedder     Embedder
	index        index.Index
	logger       *slog.Logger
}

// New creates an ingestion pipeline targeting idx.
func New(chunkSize, chunkOverlap int, embedder Embedder, idx index.Index, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &Pipeline{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		markdown:     chunker.NewMarkdown(chunkSize, chunkOverlap),
		embedder:     embedder,
		index:        idx,
		logger:       logger,
	}
}

// Run ingests every document of the knowledge base into the index.
// A document that fails to chunk, embed, or insert is recorded and skipped
// so one bad document does not block the rest.
func (p *Pipeline) Run(ctx context.Context, base *knowledge.Base) (*Result, error) {
	start := time.Now()
	result := &Result{TotalDocs: len(base.Documents)}

	p.logger.Info("starting ingestion", "documents", len(base.Documents))

	for _, doc := range base.Documents {
		n, err := p.ingestDocument(ctx, doc)
		if err != nil {
			p.logger.Warn("failed to ingest document", "source", doc.Source, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Source: doc.Source,
				Reason: err.Error(),
			})
			continue
		}
		result.TotalChunks += n
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingestion complete",
		"documents", result.TotalDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

// ingestDocument chunks, embeds, and inserts a single document, returning
// the number of chunks created.
func (p *Pipeline) ingestDocument(ctx context.Context, doc knowledge.Document) (int, error) {
	var (
		pieces []string
		err    error
	)
	switch doc.Format {
	case knowledge.FormatMarkdown:
		pieces, err = p.markdown.SplitDocument([]byte(doc.Text))
	default:
		pieces, err = chunker.Split(doc.Text, p.chunkSize, p.chunkOverlap)
	}
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(pieces) == 0 {
		return 0, nil
	}
	p.logger.Debug("chunked document", "source", doc.Source, "chunks", len(pieces))

	embeddings, err := p.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}

	entries := make([]index.Entry, len(pieces))
	for i, text := range pieces {
		entries[i] = index.Entry{
			Chunk: index.Chunk{
				ID:       uuid.New().String(),
				Text:     text,
				Source:   doc.Source,
				Position: i,
			},
			Embedding: embeddings[i],
		}
	}

	if err := p.index.Insert(ctx, entries); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return len(entries), nil
}
