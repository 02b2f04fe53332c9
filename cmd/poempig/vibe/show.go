package vibecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
	"github.com/MikeNorman/poempig/pkg/utils"
)

const showLongDesc string = `Show a vibe profile and its seed items.

Examples:
  poempig vibe show moody`

type showCommander struct {
	profile string

	store    storeFlags
	flagKeys []string
}

func newShowCmd() *cobra.Command {
	sc := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <profile>",
		Short: "Show a profile and its seed items",
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc.profile = args[0]
			return sc.run(cmd)
		},
	}

	sc.flagKeys = sc.store.register(cmd)

	return cmd
}

func (sc *showCommander) run(cmd *cobra.Command) error {
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

	p, items, err := st.Engine.GetProfileWithItems(ctx, p.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", cliui.HeaderStyle.Render(p.Name))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("id"), cliui.DimStyle.Render(p.ID))
	fmt.Printf("  %s  %d\n", cliui.KeyStyle.Render("seeds"), p.Size)
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("created"), p.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("updated"), p.UpdatedAt.Format("2006-01-02 15:04"))

	if len(items) == 0 {
		fmt.Printf("\n%s\n", cliui.DimStyle.Render("No seed items."))
		return nil
	}

	fmt.Println()
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = it.ID
		}
		fmt.Printf("  %s %s\n", cliui.TitleStyle.Render(title), cliui.DimStyle.Render(it.ID))
		if it.Author != "" {
			fmt.Printf("    %s\n", cliui.DimStyle.Render(it.Author))
		}
		if it.Text != "" {
			fmt.Printf("    %s\n", cliui.DimStyle.Render(utils.Truncate(utils.Oneline(it.Text), previewWidth)))
		}
	}

	return nil
}
