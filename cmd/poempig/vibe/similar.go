package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
	"github.com/MikeNorman/poempig/pkg/vibe"
)

const similarLongDesc string = `Find items near a profile's centroid.

Seed items never appear in the results. Use --exclude to drop further
items, for example ones already shown to the user.

Examples:
  poempig vibe similar moody
  poempig vibe similar moody --top 5 --exclude poem-9`

type similarCommander struct {
	profile  string
	topK     int
	excludes []string
	quiet    bool

	store    storeFlags
	flagKeys []string
}

func newSimilarCmd() *cobra.Command {
	sc := &similarCommander{}

	cmd := &cobra.Command{
		Use:   "similar <profile>",
		Short: "Find items near a profile's centroid",
		Long:  similarLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc.profile = args[0]
			return sc.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&sc.topK, "top", "k", vibe.DefaultTopK, "Maximum number of results")
	cmd.Flags().StringArrayVarP(&sc.excludes, "exclude", "x", nil, "Item ID to exclude (repeatable)")
	cmd.Flags().BoolVarP(&sc.quiet, "quiet", "q", false, "Print item IDs only")
	sc.flagKeys = sc.store.register(cmd)

	return cmd
}

func (sc *similarCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: sc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.ResolveProfile(ctx, sc.profile)
	if err != nil {
		return err
	}

	matches, err := st.Engine.FindSimilarToProfile(ctx, p.ID, sc.topK, sc.excludes)
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
		if len(p.SeedItemIDs) == 0 {
			fmt.Printf("Profile %q has no seeds yet. Add some with \"poempig vibe add\".\n", p.Name)
			return nil
		}
		fmt.Printf("No matches for profile %q\n", p.Name)
		return nil
	}

	fmt.Printf("%s\n\n", cliui.HeaderStyle.Render(fmt.Sprintf("%d items matching %q", len(matches), p.Name)))
	for i, m := range matches {
		printMatch(i+1, m)
	}

	return nil
}
