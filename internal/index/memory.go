package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force in-memory index. Insertion appends, search scans
// every stored embedding. O(n) per query is fine for the corpus this serves
// (hundreds to low thousands of chunks). State is lost on process exit.
type Memory struct {
	mu        sync.RWMutex
	dimension int // learned from the first inserted entry
	entries   []Entry
}

// NewMemory creates an empty in-memory index. The embedding dimension is
// learned from the first insert rather than configured up front.
func NewMemory() *Memory {
	return &Memory{}
}

// Insert appends entries to the index. No deduplication is performed.
// All embeddings must share one dimension; a conflict with the dimension
// learned earlier is a configuration error.
func (m *Memory) Insert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %d: empty embedding", i)
		}
		if m.dimension == 0 {
			m.dimension = len(e.Embedding)
		}
		if len(e.Embedding) != m.dimension {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(e.Embedding), m.dimension)
		}
	}
	m.entries = append(m.entries, entries...)
	return nil
}

// Search returns up to topK entries sorted by descending cosine similarity.
// Ties keep insertion order, earlier entries first. An empty index yields an
// empty result set, not an error.
func (m *Memory) Search(_ context.Context, embedding []float32, topK int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, nil
	}
	if m.dimension != len(embedding) {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), m.dimension)
	}
	if topK < 1 {
		topK = 1
	}

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(m.entries))
	for i, e := range m.entries {
		scores[i] = scored{pos: i, score: Cosine(embedding, e.Embedding)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]Result, topK)
	for i := 0; i < topK; i++ {
		results[i] = Result{Chunk: m.entries[scores[i].pos].Chunk, Score: scores[i].score}
	}
	return results, nil
}

// Len reports the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cosine computes the cosine similarity between two vectors. A zero-norm
// vector yields 0 rather than an error.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
