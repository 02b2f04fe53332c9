package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const renameLongDesc string = `Rename a vibe profile.

Fails if another profile already has the new name.

Examples:
  poempig vibe rename moody melancholy`

type renameCommander struct {
	profile string
	newName string

	store    storeFlags
	flagKeys []string
}

func newRenameCmd() *cobra.Command {
	rc := &renameCommander{}

	cmd := &cobra.Command{
		Use:   "rename <profile> <new-name>",
		Short: "Rename a profile",
		Long:  renameLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc.profile = args[0]
			rc.newName = args[1]
			return rc.run(cmd)
		},
	}

	rc.flagKeys = rc.store.register(cmd)

	return cmd
}

func (rc *renameCommander) run(cmd *cobra.Command) error {
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

	oldName := p.Name
	p, err = st.Engine.RenameProfile(ctx, p.ID, rc.newName)
	if err != nil {
		return err
	}

	fmt.Printf("%s Renamed %s to %s\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(oldName),
		cliui.KeyStyle.Render(p.Name),
	)
	return nil
}
