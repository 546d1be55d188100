// Package configcmder provides the config command for managing persistent
// advisor configuration stored in the .advisor/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
)

const configLongDesc string = `Manage persistent advisor configuration.

Configuration is stored as config.toml in the .advisor/ directory and provides
default values for command flags. CLI flags and ADVISOR_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  store.path, store.strict_load,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  vector_index.provider, vector_index.target, vector_index.collection,
  llm.provider, llm.target, llm.model,
  api.listen,
  events.provider, events.brokers, events.topic,
  search.top_k

Use subcommands to get, set, or list configuration values:
  advisor config set <key> <value>    Set a configuration value
  advisor config get <key>            Get a configuration value
  advisor config list                 List all configuration values

Examples:
  advisor config set vector_index.provider sqlite
  advisor config set llm.model mistral
  advisor config get embedding.provider
  advisor config list`

const configShortDesc string = "Manage persistent advisor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
