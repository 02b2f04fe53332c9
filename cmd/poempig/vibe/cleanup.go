package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const cleanupLongDesc string = `Delete profiles with fewer than a minimum number of seeds.

Useful for clearing out abandoned experiments. The default threshold of 2
removes empty and single-seed profiles. Without --force the command only
lists what it would delete.

Examples:
  poempig vibe cleanup
  poempig vibe cleanup --min-items 3 --force`

type cleanupCommander struct {
	minItems int
	force    bool

	store    storeFlags
	flagKeys []string
}

func newCleanupCmd() *cobra.Command {
	cc := &cleanupCommander{}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete profiles below a seed-count threshold",
		Long:  cleanupLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.run(cmd)
		},
	}

	cmd.Flags().IntVar(&cc.minItems, "min-items", 2, "Minimum seed count a profile must have to survive")
	cmd.Flags().BoolVar(&cc.force, "force", false, "Actually delete; without this only list candidates")
	cc.flagKeys = cc.store.register(cmd)

	return cmd
}

func (cc *cleanupCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: cc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	if !cc.force {
		profiles, err := st.Engine.ListProfiles(ctx)
		if err != nil {
			return err
		}

		var candidates int
		for _, p := range profiles {
			if len(p.SeedItemIDs) < cc.minItems {
				printProfileLine(p)
				candidates++
			}
		}
		if candidates == 0 {
			fmt.Printf("%s Nothing to clean up\n", cliui.SuccessMark)
			return nil
		}
		fmt.Printf("\n%d profiles would be deleted. Re-run with --force to delete them.\n", candidates)
		return nil
	}

	removed, err := st.Engine.CleanupSmallProfiles(ctx, cc.minItems)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		fmt.Printf("%s Nothing to clean up\n", cliui.SuccessMark)
		return nil
	}

	fmt.Printf("%s Removed %d profiles:\n", cliui.SuccessMark, len(removed))
	for _, p := range removed {
		printProfileLine(p)
	}

	return nil
}
