package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/vector"
	"github.com/papercomputeco/advisor/pkg/vector/flat"
	"github.com/papercomputeco/advisor/pkg/vector/qdrant"
	"github.com/papercomputeco/advisor/pkg/vector/sqlitevec"
)

const (
	ProviderFlat      = "flat"
	ProviderSQLiteVec = "sqlite"
	ProviderQdrant    = "qdrant"
)

type NewIndexOpts struct {
	ProviderType string

	// TargetURL is the sqlite database path or the qdrant address.
	TargetURL  string
	Collection string
	Dimensions uint
	Logger     *slog.Logger
}

func NewIndex(ctx context.Context, o *NewIndexOpts) (vector.Index, error) {
	if o.Dimensions == 0 {
		return nil, fmt.Errorf("vector index dimensions cannot be 0")
	}

	switch o.ProviderType {
	case "", ProviderFlat:
		return flat.NewIndex(o.Dimensions), nil
	case ProviderSQLiteVec:
		return sqlitevec.NewIndex(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewIndex(ctx, qdrant.Config{
			Target:         o.TargetURL,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector index provider: %s", o.ProviderType)
	}
}
