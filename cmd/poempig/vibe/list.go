package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
)

const listLongDesc string = `List all vibe profiles.

Examples:
  poempig vibe list`

type listCommander struct {
	store    storeFlags
	flagKeys []string
}

func newListCmd() *cobra.Command {
	lc := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all profiles",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return lc.run(cmd)
		},
	}

	lc.flagKeys = lc.store.register(cmd)

	return cmd
}

func (lc *listCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: lc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	profiles, err := st.Engine.ListProfiles(ctx)
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		fmt.Println("No profiles yet. Create one with \"poempig vibe create\".")
		return nil
	}

	for _, p := range profiles {
		printProfileLine(p)
	}

	return nil
}
