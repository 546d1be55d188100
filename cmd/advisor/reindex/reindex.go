// Package reindexcmder provides the reindex command, which rebuilds the
// vector index from the session log.
package reindexcmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/knowledge"
	knowledgeutils "github.com/papercomputeco/advisor/pkg/knowledge/utils"
)

const reindexLongDesc string = `Rebuild the vector index from the session log.

Every stored session is re-embedded in log order, then index statistics are
printed. A non-zero "behind" count means some sessions could not be indexed.

Use this after changing the embedding provider or dimensions, or when a
persistent index (sqlite, qdrant) may be out of step with the session log.`

const reindexShortDesc string = "Rebuild the vector index"

func NewReindexCmd() *cobra.Command {
	var env *setup.Env

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: reindexShortDesc,
		Long:  reindexLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			env, err = setup.Load(cmd, setup.StoreFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cmd, env)
		},
	}

	setup.AddFlags(cmd, setup.StoreFlags...)

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, env *setup.Env) error {
	log := setup.Logger(cmd)
	status := cmd.ErrOrStderr()

	var store *knowledge.Store
	err := cliui.Step(status, "Loading knowledge store", func() error {
		var err error
		store, err = knowledgeutils.NewStore(ctx, env.StoreOpts(log))
		return err
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("closing knowledge store", "error", err)
		}
	}()

	err = cliui.Step(status, fmt.Sprintf("Re-embedding %d sessions", store.Stats().Sessions), func() error {
		return store.Rebuild(ctx)
	})
	if err != nil {
		return err
	}

	printStats(cmd.OutOrStdout(), store.Stats())
	if stats := store.Stats(); stats.Behind > 0 {
		return fmt.Errorf("%w: %d sessions not indexed", knowledge.ErrIndexBehind, stats.Behind)
	}
	return nil
}

func printStats(w io.Writer, s knowledge.Stats) {
	cliui.Header(w, "Knowledge store")
	cliui.KV(w, "Session log", s.Path)
	cliui.KV(w, "Clients", s.Clients)
	cliui.KV(w, "Sessions", s.Sessions)
	cliui.KV(w, "Indexed", s.Indexed)
	cliui.KV(w, "Behind", s.Behind)
	cliui.KV(w, "Dimensions", s.Dimensions)
}
