// Package poempigcmder
package poempigcmder

import (
	"github.com/spf13/cobra"

	coherencecmder "github.com/MikeNorman/poempig/cmd/poempig/coherence"
	configcmder "github.com/MikeNorman/poempig/cmd/poempig/config"
	mcpcmder "github.com/MikeNorman/poempig/cmd/poempig/mcp"
	searchcmder "github.com/MikeNorman/poempig/cmd/poempig/search"
	similarcmder "github.com/MikeNorman/poempig/cmd/poempig/similar"
	versioncmder "github.com/MikeNorman/poempig/cmd/poempig/version"
	vibecmder "github.com/MikeNorman/poempig/cmd/poempig/vibe"
)

const poempigLongDesc string = `Poempig finds poems and quotes by vibe.

Build vibe profiles from seed items and search the corpus by their centroid:
  poempig vibe create moody --seed <id> --seed <id>
  poempig vibe similar moody
  poempig search "the thing with feathers"`

const poempigShortDesc string = "Poempig - vibe-based poem discovery"

func NewPoempigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poempig",
		Short: poempigShortDesc,
		Long:  poempigLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .poempig/ directory")

	// Add subcommands
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(similarcmder.NewSimilarCmd())
	cmd.AddCommand(vibecmder.NewVibeCmd())
	cmd.AddCommand(coherencecmder.NewCoherenceCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
