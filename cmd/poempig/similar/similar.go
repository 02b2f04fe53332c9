// Package similarcmder provides the similar command for finding items
// close to a given item in embedding space.
package similarcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
	"github.com/MikeNorman/poempig/pkg/config"
	"github.com/MikeNorman/poempig/pkg/utils"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vibe"
)

const previewWidth = 80

const similarLongDesc string = `Find items similar to a given item.

Ranks the corpus by cosine similarity to the item's embedding. The item
itself is never returned.

Examples:
  poempig similar poem-42
  poempig similar poem-42 --top 5 --exclude poem-7`

const similarShortDesc string = "Find items similar to an item"

type similarCommander struct {
	itemID   string
	topK     int
	excludes []string
	quiet    bool

	items           string
	vectorStoreProv string
	profilePath     string
	candidateBudget int
	flagKeys        []string
}

func NewSimilarCmd() *cobra.Command {
	sc := &similarCommander{}

	cmd := &cobra.Command{
		Use:   "similar <item-id>",
		Short: similarShortDesc,
		Long:  similarLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc.itemID = args[0]
			return sc.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&sc.topK, "top", "k", vibe.DefaultTopK, "Maximum number of results")
	cmd.Flags().StringArrayVarP(&sc.excludes, "exclude", "x", nil, "Item ID to exclude (repeatable)")
	cmd.Flags().BoolVarP(&sc.quiet, "quiet", "q", false, "Print item IDs only")

	sc.flagKeys = []string{
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagProfilePath,
		config.FlagCandidateBudget,
	}
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &sc.vectorStoreProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &sc.items)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfilePath, &sc.profilePath)
	config.AddIntFlag(cmd, config.Flags, config.FlagCandidateBudget, &sc.candidateBudget)

	return cmd
}

func (sc *similarCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: sc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	matches, err := st.Engine.FindSimilarToItem(ctx, sc.itemID, sc.topK, sc.excludes)
	if err != nil {
		return err
	}

	if sc.quiet {
		for _, m := range matches {
			fmt.Println(m.Item.ID)
		}
		return nil
	}

	if len(matches) == 0 {
		fmt.Printf("No similar items for %q\n", sc.itemID)
		return nil
	}

	fmt.Printf("%s\n\n", cliui.HeaderStyle.Render(fmt.Sprintf("%d items similar to %q", len(matches), sc.itemID)))
	for i, m := range matches {
		printMatch(i+1, m)
	}

	return nil
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
