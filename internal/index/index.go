// Package index stores chunk embeddings and serves top-k cosine similarity
// search. Two interchangeable implementations exist: an in-memory linear
// scan and a Qdrant-backed store.
package index

import (
	"context"
	"log/slog"
)

// Chunk is a bounded piece of a source document, the unit of retrieval.
type Chunk struct {
	ID       string // UUID, assigned at ingestion time
	Text     string
	Source   string // originating document, e.g. "linkedin.pdf"
	Position int    // chunk position within the document (0, 1, 2...)
}

// Entry pairs a chunk with its embedding for insertion.
type Entry struct {
	Chunk     Chunk
	Embedding []float32
}

// Result is a chunk matched by a similarity search.
// Score is cosine similarity in [-1, 1], higher is better.
type Result struct {
	Chunk Chunk
	Score float64
}

// Index is the capability both store variants implement.
type Index interface {
	Insert(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, embedding []float32, topK int) ([]Result, error)
}

// Options configures index selection at startup.
type Options struct {
	// QdrantAddr is the host:port of the Qdrant gRPC endpoint.
	// Empty means the in-memory index is used directly.
	QdrantAddr string
	QdrantKey  string
	Collection string
	Dimension  int

	// connect is overridable in tests to simulate initialization failure.
	connect func(ctx context.Context, opts Options) (Index, error)
}

// Open selects the active index for the process lifetime. When a Qdrant
// address is configured it is attempted exactly once; an initialization
// failure logs the cause and falls back to the in-memory variant. The
// decision is never re-attempted per query.
func Open(ctx context.Context, opts Options, logger *slog.Logger) Index {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.QdrantAddr == "" {
		logger.Info("using in-memory vector index")
		return NewMemory()
	}

	connect := opts.connect
	if connect == nil {
		connect = func(ctx context.Context, opts Options) (Index, error) {
			return OpenQdrant(ctx, QdrantConfig{
				Addr:       opts.QdrantAddr,
				APIKey:     opts.QdrantKey,
				Collection: opts.Collection,
				Dimension:  opts.Dimension,
			})
		}
	}

	idx, err := connect(ctx, opts)
	if err != nil {
		logger.Warn("qdrant unavailable, falling back to in-memory index",
			"addr", opts.QdrantAddr, "error", err)
		return NewMemory()
	}
	logger.Info("using qdrant vector index", "addr", opts.QdrantAddr, "collection", opts.Collection)
	return idx
}
