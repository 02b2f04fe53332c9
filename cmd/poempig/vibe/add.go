package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const addLongDesc string = `Add a seed item to a vibe profile.

The profile's centroid is recomputed from the new seed set. Adding a
seed the profile already has is a no-op.

Examples:
  poempig vibe add moody poem-42`

type addCommander struct {
	profile string
	itemID  string

	store    storeFlags
	flagKeys []string
}

func newAddCmd() *cobra.Command {
	ac := &addCommander{}

	cmd := &cobra.Command{
		Use:   "add <profile> <item-id>",
		Short: "Add a seed item to a profile",
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac.profile = args[0]
			ac.itemID = args[1]
			return ac.run(cmd)
		},
	}

	ac.flagKeys = ac.store.register(cmd)

	return cmd
}

func (ac *addCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: ac.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.ResolveProfile(ctx, ac.profile)
	if err != nil {
		return err
	}

	p, err = st.Engine.AddSeed(ctx, p.ID, ac.itemID)
	if err != nil {
		return err
	}

	fmt.Printf("%s Added %s to %s (%d seeds)\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(ac.itemID),
		cliui.KeyStyle.Render(p.Name),
		len(p.SeedItemIDs),
	)
	return nil
}
