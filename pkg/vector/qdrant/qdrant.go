// Package qdrant provides a vector.Index backed by a Qdrant collection.
//
// Like the sqlite-vec index, the collection is derived state: it is dropped
// and recreated on open, and a point's numeric id is its index position.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for session embeddings.
	DefaultCollectionName = "advisor_sessions"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// Target is the Qdrant gRPC address as "host" or "host:port".
	Target string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint

	// APIKey is optional.
	APIKey string
}

// Index implements vector.Index on a Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
	dims       uint
	logger     *slog.Logger

	mu     sync.RWMutex
	count  int
	closed bool
}

// Validate checks the configuration and returns the parsed host and port.
func (c Config) Validate() (string, int, error) {
	if c.Target == "" {
		return "", 0, errors.New("qdrant target is required")
	}
	if c.Dimensions == 0 {
		return "", 0, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	return splitTarget(c.Target)
}

func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// No port given.
		return target, DefaultPort, nil //nolint:nilerr
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid qdrant port %q", portStr)
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid qdrant target %q", target)
	}
	return host, port, nil
}

// NewIndex connects to Qdrant and recreates the collection.
func NewIndex(ctx context.Context, c Config, log *slog.Logger) (*Index, error) {
	host, port, err := c.Validate()
	if err != nil {
		return nil, err
	}
	log = logger.OrNop(log)

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	idx := &Index{
		client:     client,
		collection: collection,
		dims:       c.Dimensions,
		logger:     log,
	}
	if err := idx.recreate(ctx); err != nil {
		client.Close()
		return nil, err
	}

	log.Info("qdrant vector index initialized",
		"host", host,
		"port", port,
		"collection", collection,
		"dimensions", c.Dimensions,
	)
	return idx, nil
}

func (i *Index) recreate(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", vector.ErrConnection, i.collection, err)
	}
	if exists {
		if err := i.client.DeleteCollection(ctx, i.collection); err != nil {
			return fmt.Errorf("deleting collection %s: %w", i.collection, err)
		}
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(i.dims),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", i.collection, err)
	}
	i.count = 0
	return nil
}

// Add upserts vec as the point with the next position id.
func (i *Index) Add(ctx context.Context, vec []float32) (int, error) {
	if err := vector.CheckDimensions(vec, i.dims); err != nil {
		return 0, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return 0, vector.ErrClosed
	}

	pos := i.count
	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(uint64(pos)),
				Vectors: qdrant.NewVectors(vec...),
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("upserting point %d: %w", pos, err)
	}

	i.count++
	return pos, nil
}

// Search queries the collection for the k nearest points.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return nil, vector.ErrClosed
	}
	if k <= 0 || i.count == 0 {
		return []vector.Neighbor{}, nil
	}
	if err := vector.CheckDimensions(query, i.dims); err != nil {
		return nil, err
	}

	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(min(k, i.count))),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", i.collection, err)
	}

	results := make([]vector.Neighbor, 0, len(points))
	for _, p := range points {
		results = append(results, vector.Neighbor{
			Position: int(p.GetId().GetNum()),
			// Euclid scores are distances.
			Distance: p.GetScore(),
		})
	}
	vector.SortNeighbors(results)

	i.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

// Len returns the number of stored points.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.count
}

// Dimensions returns the vector length the index accepts.
func (i *Index) Dimensions() uint {
	return i.dims
}

// Reset drops and recreates the collection.
func (i *Index) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return vector.ErrClosed
	}
	return i.recreate(ctx)
}

// Close closes the gRPC connection. The collection is left in place.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.client.Close()
}

var _ vector.Index = (*Index)(nil)
