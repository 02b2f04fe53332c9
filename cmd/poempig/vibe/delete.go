package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
)

const deleteLongDesc string = `Delete a vibe profile.

Only the profile is removed; its seed items stay in the corpus.

Examples:
  poempig vibe delete moody`

type deleteCommander struct {
	profile string

	store    storeFlags
	flagKeys []string
}

func newDeleteCmd() *cobra.Command {
	dc := &deleteCommander{}

	cmd := &cobra.Command{
		Use:   "delete <profile>",
		Short: "Delete a profile",
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc.profile = args[0]
			return dc.run(cmd)
		},
	}

	dc.flagKeys = dc.store.register(cmd)

	return cmd
}

func (dc *deleteCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: dc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.ResolveProfile(ctx, dc.profile)
	if err != nil {
		return err
	}

	if err := st.Engine.DeleteProfile(ctx, p.ID); err != nil {
		return err
	}

	fmt.Printf("%s Deleted profile %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(p.Name))
	return nil
}
