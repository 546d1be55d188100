// Package knowledgeutils assembles a knowledge store from provider settings.
package knowledgeutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	embeddingutils "github.com/papercomputeco/advisor/pkg/embeddings/utils"
	eventstreamutils "github.com/papercomputeco/advisor/pkg/eventstream/utils"
	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/sessionlog"
	vectorutils "github.com/papercomputeco/advisor/pkg/vector/utils"
)

type NewStoreOpts struct {
	LogPath    string
	StrictLoad bool

	Embedding embeddingutils.NewEmbedderOpts

	// Index.Dimensions is taken from the embedder.
	Index vectorutils.NewIndexOpts

	Events eventstreamutils.NewPublisherOpts

	Logger *slog.Logger
}

// NewStore builds every part of the store and loads the session log. On
// failure, the parts built so far are closed.
func NewStore(ctx context.Context, o *NewStoreOpts) (*knowledge.Store, error) {
	log := logger.OrNop(o.Logger)

	sessions, err := sessionlog.New(sessionlog.Config{Path: o.LogPath, Logger: log})
	if err != nil {
		return nil, err
	}

	embedder, err := embeddingutils.NewEmbedder(&o.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	indexOpts := o.Index
	indexOpts.Dimensions = embedder.Dimensions()
	indexOpts.Logger = log
	index, err := vectorutils.NewIndex(ctx, &indexOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating vector index: %w", err), embedder.Close())
	}

	eventOpts := o.Events
	eventOpts.Logger = log
	publisher, err := eventstreamutils.NewPublisher(&eventOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating event publisher: %w", err), index.Close(), embedder.Close())
	}

	store, err := knowledge.New(ctx, knowledge.Config{
		Log:        sessions,
		Embedder:   embedder,
		Index:      index,
		Publisher:  publisher,
		StrictLoad: o.StrictLoad,
		Logger:     log,
	})
	if err != nil {
		return nil, errors.Join(err, publisher.Close(), index.Close(), embedder.Close())
	}
	return store, nil
}
