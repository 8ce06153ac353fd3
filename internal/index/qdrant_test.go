//go:build integration

package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestQdrant connects to a local Qdrant with a throwaway collection.
// Skips the test if Qdrant is not running.
func setupTestQdrant(t *testing.T) *Qdrant {
	q, err := OpenQdrant(context.Background(), QdrantConfig{
		Addr:       "localhost:6334",
		Collection: "knowledge_base_test",
		Dimension:  3,
	})
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	require.NoError(t, q.Clear(context.Background()), "Failed to reset collection")
	return q
}

func TestQdrant_InsertAndSearch(t *testing.T) {
	q := setupTestQdrant(t)
	defer q.Close()

	ctx := context.Background()

	entries := []Entry{
		{
			Chunk:     Chunk{ID: uuid.New().String(), Text: "alice chunk", Source: "summary.txt", Position: 0},
			Embedding: []float32{1, 0, 0},
		},
		{
			Chunk:     Chunk{ID: uuid.New().String(), Text: "bob chunk", Source: "summary.txt", Position: 1},
			Embedding: []float32{0, 1, 0},
		},
	}
	require.NoError(t, q.Insert(ctx, entries))

	results, err := q.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	top := results[0]
	assert.Equal(t, "alice chunk", top.Chunk.Text)
	assert.Equal(t, "summary.txt", top.Chunk.Source)
	assert.Equal(t, 0, top.Chunk.Position)
	assert.InDelta(t, 1.0, top.Score, 1e-3)
}

func TestQdrant_InsertIsIdempotentPerID(t *testing.T) {
	q := setupTestQdrant(t)
	defer q.Close()

	ctx := context.Background()
	id := uuid.New().String()

	e := Entry{
		Chunk:     Chunk{ID: id, Text: "original", Source: "summary.txt"},
		Embedding: []float32{1, 0, 0},
	}
	require.NoError(t, q.Insert(ctx, []Entry{e}))

	e.Chunk.Text = "replaced"
	require.NoError(t, q.Insert(ctx, []Entry{e}))

	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "same ID must replace, not duplicate")

	results, err := q.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "replaced", results[0].Chunk.Text)
}

func TestQdrant_DimensionMismatch(t *testing.T) {
	q := setupTestQdrant(t)
	defer q.Close()

	ctx := context.Background()

	err := q.Insert(ctx, []Entry{{
		Chunk:     Chunk{ID: uuid.New().String(), Text: "bad"},
		Embedding: []float32{1, 0},
	}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = q.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrant_ClearResetsCollection(t *testing.T) {
	q := setupTestQdrant(t)
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Insert(ctx, []Entry{{
		Chunk:     Chunk{ID: uuid.New().String(), Text: "chunk"},
		Embedding: []float32{1, 0, 0},
	}}))

	require.NoError(t, q.Clear(ctx))

	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
