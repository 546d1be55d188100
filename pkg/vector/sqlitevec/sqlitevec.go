// Package sqlitevec provides a SQLite-backed vector.Index using sqlite-vec.
//
// The database is a derived cache: it is cleared on open and refilled by the
// knowledge store from the session log. A vector's position is its rowid
// minus one.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/vector"
)

// Index implements vector.Index using SQLite with sqlite-vec.
type Index struct {
	db     *sql.DB
	dims   uint
	logger *slog.Logger

	mu     sync.RWMutex
	count  int
	closed bool
}

// Config holds configuration for the SQLite vec index.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewIndex opens the database, recreates the vec0 table and returns an
// empty index.
func NewIndex(c Config, log *slog.Logger) (*Index, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}
	log = logger.OrNop(log)

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// A stale table may have been created with another dimension.
	if _, err := db.Exec(`DROP TABLE IF EXISTS vec_embeddings`); err != nil {
		db.Close()
		return nil, fmt.Errorf("dropping vec0 table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE vec_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	log.Info("sqlite-vec vector index initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Index{
		db:     db,
		dims:   c.Dimensions,
		logger: log,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Add inserts vec at the next position.
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
	if _, err := i.db.ExecContext(ctx,
		`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
		int64(pos)+1, serializeFloat32(vec),
	); err != nil {
		return 0, fmt.Errorf("inserting embedding at position %d: %w", pos, err)
	}

	i.count++
	return pos, nil
}

// Search runs a KNN query through vec0 MATCH.
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

	rows, err := i.db.QueryContext(ctx, `
		SELECT rowid, distance
		FROM vec_embeddings
		WHERE embedding MATCH ?
			AND k = ?
		ORDER BY distance
	`, serializeFloat32(query), min(k, i.count))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := make([]vector.Neighbor, 0, min(k, i.count))
	for rows.Next() {
		var rowID int64
		var distance float64
		if err := rows.Scan(&rowID, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		results = append(results, vector.Neighbor{
			Position: int(rowID - 1),
			Distance: float32(distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	// vec0 does not promise an order among equal distances.
	vector.SortNeighbors(results)

	i.logger.Debug("queried sqlite-vec", "results", len(results))
	return results, nil
}

// Len returns the number of stored vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.count
}

// Dimensions returns the vector length the index accepts.
func (i *Index) Dimensions() uint {
	return i.dims
}

// Reset deletes every stored vector.
func (i *Index) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return vector.ErrClosed
	}
	if _, err := i.db.ExecContext(ctx, `DELETE FROM vec_embeddings`); err != nil {
		return fmt.Errorf("clearing vec0 table: %w", err)
	}
	i.count = 0
	return nil
}

// Close releases the database handle.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.db.Close()
}

var _ vector.Index = (*Index)(nil)
