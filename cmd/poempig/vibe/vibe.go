// Package vibecmder provides the vibe command family for creating and
// querying vibe profiles.
package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/pkg/cliui"
	"github.com/MikeNorman/poempig/pkg/config"
	"github.com/MikeNorman/poempig/pkg/utils"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vibe"
)

const previewWidth = 80

const vibeLongDesc string = `Create and query vibe profiles.

A vibe profile is a named centroid over the embeddings of its seed items.
Seed a profile with items that share a mood, then search the corpus for
items near the centroid:

  poempig vibe create moody --seed poem-3 --seed poem-17
  poempig vibe add moody quote-9
  poempig vibe similar moody
  poempig vibe show moody`

const vibeShortDesc string = "Create and query vibe profiles"

func NewVibeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibe",
		Short: vibeShortDesc,
		Long:  vibeLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newSimilarCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newCleanupCmd())

	return cmd
}

// storeFlags holds the store wiring flags shared by every vibe subcommand.
type storeFlags struct {
	items           string
	vectorStoreProv string
	profilePath     string
	candidateBudget int
}

// register adds the shared store flags to cmd and returns the registry keys
// for BindRegisteredFlags.
func (sf *storeFlags) register(cmd *cobra.Command) []string {
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &sf.vectorStoreProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &sf.items)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfilePath, &sf.profilePath)
	config.AddIntFlag(cmd, config.Flags, config.FlagCandidateBudget, &sf.candidateBudget)

	return []string{
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagProfilePath,
		config.FlagCandidateBudget,
	}
}

func printProfileLine(p *vibe.Profile) {
	fmt.Printf("  %s  %s %s\n",
		cliui.KeyStyle.Render(p.Name),
		cliui.ValueStyle.Render(fmt.Sprintf("%d seeds", len(p.SeedItemIDs))),
		cliui.DimStyle.Render(p.ID),
	)
}

func printMatch(rank int, m vector.Match) {
	title := m.Item.Title
	if title == "" {
		title = m.Item.ID
	}

	fmt.Printf("%s %s %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("%2d.", rank)),
		cliui.TitleStyle.Render(title),
		cliui.ScoreStyle.Render(fmt.Sprintf("(%.3f)", m.Similarity)),
	)
	if m.Item.Author != "" {
		fmt.Printf("    %s\n", cliui.DimStyle.Render(m.Item.Author))
	}
	if m.Item.Text != "" {
		fmt.Printf("    %s\n", cliui.DimStyle.Render(utils.Truncate(utils.Oneline(m.Item.Text), previewWidth)))
	}
	fmt.Println()
}
