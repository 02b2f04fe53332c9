package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const statsLongDesc string = `Show collection-wide profile statistics.

Examples:
  poempig vibe stats`

type statsCommander struct {
	store    storeFlags
	flagKeys []string
}

func newStatsCmd() *cobra.Command {
	sc := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection-wide profile statistics",
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sc.run(cmd)
		},
	}

	sc.flagKeys = sc.store.register(cmd)

	return cmd
}

func (sc *statsCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: sc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Engine.CollectionStats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", cliui.HeaderStyle.Render("Profile collection"))
	fmt.Printf("  %s  %d\n", cliui.KeyStyle.Render("profiles"), stats.Profiles)
	fmt.Printf("  %s  %d\n", cliui.KeyStyle.Render("seeds"), stats.Seeds)
	fmt.Printf("  %s  %d\n", cliui.KeyStyle.Render("empty"), stats.Empty)
	fmt.Printf("  %s  %.1f\n", cliui.KeyStyle.Render("mean size"), stats.MeanSize)

	return nil
}
