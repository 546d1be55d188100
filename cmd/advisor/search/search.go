// Package searchcmder provides the search command for semantic search over
// stored advisory sessions.
package searchcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/knowledge"
	knowledgeutils "github.com/papercomputeco/advisor/pkg/knowledge/utils"
	"github.com/papercomputeco/advisor/pkg/utils"
)

// previewLen is how much of each session text is shown per result.
const previewLen = 160

type searchCommander struct {
	query string
	quiet bool

	env    *setup.Env
	out    io.Writer
	logger *slog.Logger
}

const searchLongDesc string = `Search stored advisory sessions.

Embeds the query and returns the sessions nearest to it in the knowledge
store, closest first. Distances are Euclidean; smaller is more similar.

Use --quiet to print only "client/session" identifiers, one per line.

Examples:
  advisor search "retirement savings for a cautious client"
  advisor search "index funds" --top 5
  advisor search "roth ira" --quiet`

const searchShortDesc string = "Search stored sessions"

var searchFlags = append([]string{config.FlagTopK}, setup.StoreFlags...)

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.env, err = setup.Load(cmd, searchFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.out = cmd.OutOrStdout()
			cmder.logger = setup.Logger(cmd)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only client/session identifiers, one per line")
	setup.AddFlags(cmd, searchFlags...)

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	store, err := knowledgeutils.NewStore(ctx, c.env.StoreOpts(c.logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Error("closing knowledge store", "error", err)
		}
	}()

	matches, err := store.RetrieveSimilarSessions(ctx, c.query, c.env.Config.Search.TopK)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		if !c.quiet {
			fmt.Fprintln(c.out, "No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, m := range matches {
			fmt.Fprintf(c.out, "%s/%s\n", m.ClientName, m.SessionID)
		}
		return nil
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		cliui.KeyStyle.Render(fmt.Sprintf("%q", c.query)),
	)
	for i, m := range matches {
		c.printMatch(i+1, m)
	}
	return nil
}

func (c *searchCommander) printMatch(rank int, m knowledge.Match) {
	fmt.Fprintf(c.out, "  %s  %s  %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.KeyStyle.Render(m.ClientName+"/"+m.SessionID),
		cliui.DimStyle.Render(fmt.Sprintf("distance: %.4f", m.Distance)),
	)
	fmt.Fprintf(c.out, "      %s\n\n", cliui.ValueStyle.Render(utils.Truncate(m.Text, previewLen)))
}
