package index

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// DefaultCollection is the Qdrant collection holding the knowledge base.
const DefaultCollection = "knowledge_base"

// upsertBatchSize bounds points per upsert request.
const upsertBatchSize = 100

// QdrantConfig addresses an external Qdrant instance.
type QdrantConfig struct {
	Addr       string // host:port of the gRPC endpoint
	APIKey     string
	Collection string
	Dimension  int
}

// Qdrant delegates storage and nearest-neighbor search to a Qdrant server.
// The collection uses cosine distance so scores match the in-memory variant
// within floating-point tolerance.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// OpenQdrant connects to Qdrant, verifies health with retry, and ensures the
// collection exists with compatible configuration. Any failure here is an
// initialization failure the caller may fall back from.
func OpenQdrant(ctx context.Context, cfg QdrantConfig) (*Qdrant, error) {
	host, port, err := splitAddr(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant addr %q: %w", cfg.Addr, err)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant index requires an explicit embedding dimension")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	q := &Qdrant{client: client, collection: cfg.Collection, dimension: cfg.Dimension}

	if err := q.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if err := q.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return q, nil
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// Bare host, assume the default gRPC port.
		return addr, 6334, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

// healthCheckWithRetry probes the server with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return q.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (q *Qdrant) Health(ctx context.Context) error {
	result, err := q.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// ensureCollection creates the collection if it does not exist. Creation is
// idempotent: an existing collection with compatible dimensionality is
// reused as-is.
func (q *Qdrant) ensureCollection(ctx context.Context) error {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == q.collection {
			return nil
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	return nil
}

// Insert upserts entries as points, batched in groups of 100.
// Point IDs are the chunk UUIDs so reingestion replaces rather than
// duplicates.
func (q *Qdrant) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for i, e := range entries {
		if len(e.Embedding) != q.dimension {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(e.Embedding), q.dimension)
		}
	}

	for i := 0; i < len(entries); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(entries))
		batch := entries[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, e := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(e.Chunk.ID),
				Vectors: qdrant.NewVectors(e.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"text":     e.Chunk.Text,
					"source":   e.Chunk.Source,
					"position": e.Chunk.Position,
				}),
			}
		}

		if err := q.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search runs a vector similarity query and maps points back to results.
// A provider error at query time is surfaced, never swallowed.
func (q *Qdrant) Search(ctx context.Context, embedding []float32, topK int) ([]Result, error) {
	if len(embedding) != q.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), q.dimension)
	}
	if topK < 1 {
		topK = 1
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	results := make([]Result, 0, len(points))
	for _, p := range points {
		payload := p.Payload
		results = append(results, Result{
			Chunk: Chunk{
				ID:       p.Id.GetUuid(),
				Text:     payload["text"].GetStringValue(),
				Source:   payload["source"].GetStringValue(),
				Position: int(payload["position"].GetIntegerValue()),
			},
			Score: float64(p.Score),
		})
	}
	return results, nil
}

// Clear drops and recreates the collection. Used by reingestion.
func (q *Qdrant) Clear(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", q.collection, err)
	}
	return q.ensureCollection(ctx)
}

// Count returns the number of stored points.
func (q *Qdrant) Count(ctx context.Context) (uint64, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection %s: %w", q.collection, err)
	}
	return info.GetPointsCount(), nil
}

// Close closes the underlying gRPC connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}
