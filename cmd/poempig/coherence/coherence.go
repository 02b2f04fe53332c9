// Package coherencecmder provides the coherence command for judging how
// tightly a set of embeddings clusters.
package coherencecmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
	"github.com/MikeNorman/poempig/pkg/config"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vibe"
)

const coherenceLongDesc string = `Report how tightly a set of embeddings clusters.

Computes pairwise cosine similarity across the embeddings, the mean
similarity of each vector to the centroid, and the worst leave-one-out
centroid drift. Low pairwise similarity or high drift means the set mixes
vibes and its centroid sits between clusters.

With a profile argument the report covers that profile's seeds. With
--author it covers one author's embedded items. With neither it covers
the whole corpus.

Fewer than three vectors gives degenerate statistics; the report says so
rather than pretending the numbers mean anything.

Examples:
  poempig coherence moody
  poempig coherence --author "Emily Dickinson"
  poempig coherence`

const coherenceShortDesc string = "Report how tightly embeddings cluster"

type coherenceCommander struct {
	profile string
	author  string

	items           string
	vectorStoreProv string
	profilePath     string
	flagKeys        []string
}

func NewCoherenceCmd() *cobra.Command {
	cc := &coherenceCommander{}

	cmd := &cobra.Command{
		Use:   "coherence [profile]",
		Short: coherenceShortDesc,
		Long:  coherenceLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cc.profile = args[0]
			}
			if cc.profile != "" && cc.author != "" {
				return errors.New("pass a profile or --author, not both")
			}
			return cc.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cc.author, "author", "", "Measure one author's items instead of a profile")

	cc.flagKeys = []string{
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagProfilePath,
	}
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cc.vectorStoreProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cc.items)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfilePath, &cc.profilePath)

	return cmd
}

func (cc *coherenceCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{FlagKeys: cc.flagKeys})
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		stats   vibe.CoherenceStats
		subject string
	)

	switch {
	case cc.profile != "":
		p, err := st.ResolveProfile(ctx, cc.profile)
		if err != nil {
			return err
		}
		stats, err = st.Engine.ProfileCoherence(ctx, p.ID)
		if err != nil {
			if errors.Is(err, vibe.ErrNoVectors) {
				fmt.Printf("Profile %q has no embedded seeds\n", p.Name)
				return nil
			}
			return err
		}
		subject = fmt.Sprintf("profile %q", p.Name)
	case cc.author != "":
		stats, err = st.Engine.ItemsCoherence(ctx, vector.Filter{Author: cc.author})
		if err != nil {
			if errors.Is(err, vibe.ErrNoVectors) {
				fmt.Printf("No embedded items by %q\n", cc.author)
				return nil
			}
			return err
		}
		subject = fmt.Sprintf("author %q", cc.author)
	default:
		stats, err = st.Engine.ItemsCoherence(ctx, vector.Filter{})
		if err != nil {
			if errors.Is(err, vibe.ErrNoVectors) {
				fmt.Println("No embedded items in the corpus")
				return nil
			}
			return err
		}
		subject = "corpus"
	}

	fmt.Printf("%s\n", cliui.HeaderStyle.Render(fmt.Sprintf("Coherence of %s (%d embedded vectors)", subject, stats.Count)))

	if stats.Count < 2 {
		fmt.Printf("  %s\n", cliui.DimStyle.Render("Too few embedded vectors to measure coherence."))
		return nil
	}

	printStat("mean pairwise", fmt.Sprintf("%.3f", stats.MeanPairwise), markAbove(stats.MeanPairwise, 0.6, 0.4))
	printStat("min pairwise", fmt.Sprintf("%.3f", stats.MinPairwise), markAbove(stats.MinPairwise, 0.4, 0.2))
	printStat("tightness", fmt.Sprintf("%.3f", stats.Tightness), markAbove(stats.Tightness, 0.7, 0.5))

	if stats.Count < 3 {
		printStat("max drift", cliui.DimStyle.Render("n/a (needs 3+ vectors)"), "")
	} else {
		printStat("max drift", fmt.Sprintf("%.1f°", stats.MaxDriftDegrees), markBelow(stats.MaxDriftDegrees, 5.0, 15.0))
	}

	return nil
}

func printStat(name, value, mark string) {
	if mark == "" {
		fmt.Printf("  %-14s %s\n", cliui.KeyStyle.Render(name), value)
		return
	}
	fmt.Printf("  %-14s %s %s\n", cliui.KeyStyle.Render(name), value, mark)
}

// markAbove grades a higher-is-better statistic.
func markAbove(v, good, ok float64) string {
	switch {
	case v >= good:
		return cliui.SuccessMark
	case v >= ok:
		return cliui.WarnMark
	default:
		return cliui.FailMark
	}
}

// markBelow grades a lower-is-better statistic.
func markBelow(v, good, ok float64) string {
	switch {
	case v <= good:
		return cliui.SuccessMark
	case v <= ok:
		return cliui.WarnMark
	default:
		return cliui.FailMark
	}
}
