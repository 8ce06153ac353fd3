// Package retriever turns a query string into a ranked list of knowledge
// base chunks by combining the embedder with the active vector index.
package retriever

import (
	"context"
	"fmt"

	"github.com/saidmadi/persona-api/internal/index"
)

// DefaultTopK is the retrieval depth when the caller passes 0.
const DefaultTopK = 3

// Embedder is the single capability the retriever needs from the embedding
// layer, so the model can change without touching the index contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds queries and delegates similarity search to the index
// chosen at startup.
type Retriever struct {
	embedder Embedder
	index    index.Index
	topK     int
}

// New constructs a Retriever. defaultTopK <= 0 falls back to DefaultTopK.
func New(embedder Embedder, idx index.Index, defaultTopK int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("retriever: embedder must not be nil")
	}
	if idx == nil {
		return nil, fmt.Errorf("retriever: index must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{embedder: embedder, index: idx, topK: defaultTopK}, nil
}

// Query returns the topK most similar chunks, descending by score. topK <= 0
// uses the configured default; it is always clamped to at least 1. Zero
// matches is a valid empty result, not an error.
func (r *Retriever) Query(ctx context.Context, text string, topK int) ([]index.Result, error) {
	if topK <= 0 {
		topK = r.topK
	}
	if topK < 1 {
		topK = 1
	}

	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.index.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return results, nil
}
