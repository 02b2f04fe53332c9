package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const removeLongDesc string = `Remove a seed item from a vibe profile.

The profile's centroid is recomputed from the remaining seeds. Removing
the last seed leaves an empty profile with no centroid. Removing an item
the profile does not have is a no-op.

Examples:
  poempig vibe remove moody poem-42`

type removeCommander struct {
	profile string
	itemID  string

	store    storeFlags
	flagKeys []string
}

func newRemoveCmd() *cobra.Command {
	rc := &removeCommander{}

	cmd := &cobra.Command{
		Use:   "remove <profile> <item-id>",
		Short: "Remove a seed item from a profile",
		Long:  removeLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc.profile = args[0]
			rc.itemID = args[1]
			return rc.run(cmd)
		},
	}

	rc.flagKeys = rc.store.register(cmd)

	return cmd
}

func (rc *removeCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: rc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.ResolveProfile(ctx, rc.profile)
	if err != nil {
		return err
	}

	p, err = st.Engine.RemoveSeed(ctx, p.ID, rc.itemID)
	if err != nil {
		return err
	}

	fmt.Printf("%s Removed %s from %s (%d seeds)\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(rc.itemID),
		cliui.KeyStyle.Render(p.Name),
		len(p.SeedItemIDs),
	)
	return nil
}
