package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const createLongDesc string = `Create a vibe profile.

Seeds are optional; an empty profile can be grown later with "vibe add".
Duplicate seed IDs are collapsed. If a profile with the exact same seed
set already exists it is returned instead of creating a twin.

Examples:
  poempig vibe create moody --seed poem-3 --seed poem-17
  poempig vibe create scratch`

type createCommander struct {
	name  string
	seeds []string

	store    storeFlags
	flagKeys []string
}

func newCreateCmd() *cobra.Command {
	cc := &createCommander{}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a vibe profile",
		Long:  createLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc.name = args[0]
			return cc.run(cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&cc.seeds, "seed", "s", nil, "Seed item ID (repeatable)")
	cc.flagKeys = cc.store.register(cmd)

	return cmd
}

func (cc *createCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: cc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.Engine.CreateProfile(ctx, cc.name, cc.seeds)
	if err != nil {
		return err
	}

	fmt.Printf("%s Created profile %s (%d seeds)\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(p.Name),
		len(p.SeedItemIDs),
	)
	fmt.Printf("  %s\n", cliui.DimStyle.Render(p.ID))
	return nil
}
