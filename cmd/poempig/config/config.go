// Package configcmder provides the config command for managing persistent
// poempig configuration stored in the .poempig/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent poempig configuration.

Configuration is stored as config.toml in the .poempig/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.profile_path,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  engine.candidate_budget

Use subcommands to get, set, or list configuration values:
  poempig config set <key> <value>    Set a configuration value
  poempig config get <key>            Get a configuration value
  poempig config list                 List all configuration values

Examples:
  poempig config set vector_store.provider postgres
  poempig config set embedding.model nomic-embed-text
  poempig config get embedding.dimensions
  poempig config list`

const configShortDesc string = "Manage persistent poempig configuration"

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
