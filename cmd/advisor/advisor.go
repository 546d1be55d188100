// Package advisorcmder is the root advisor command.
package advisorcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/advisor/cmd/advisor/config"
	reindexcmder "github.com/papercomputeco/advisor/cmd/advisor/reindex"
	searchcmder "github.com/papercomputeco/advisor/cmd/advisor/search"
	servecmder "github.com/papercomputeco/advisor/cmd/advisor/serve"
	sessioncmder "github.com/papercomputeco/advisor/cmd/advisor/session"
	versioncmder "github.com/papercomputeco/advisor/cmd/version"
)

const advisorLongDesc string = `Advisor simulates financial advisory sessions and remembers them.

An advisor interviews a client, an analyst researches follow-up tasks, and
every completed session is kept in a knowledge store so later advice can draw
on similar past sessions.

Commands:
  advisor session      Run one advisory session
  advisor search       Search stored sessions
  advisor serve        Serve the knowledge store over HTTP and MCP
  advisor reindex      Rebuild the vector index
  advisor config       Manage persistent configuration`

const advisorShortDesc string = "Advisor - financial advisory sessions with memory"

func NewAdvisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "advisor",
		Short:        advisorShortDesc,
		Long:         advisorLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .advisor/ config directory")

	// Add subcommands
	cmd.AddCommand(sessioncmder.NewSessionCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(reindexcmder.NewReindexCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
