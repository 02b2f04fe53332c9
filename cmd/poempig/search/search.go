// Package searchcmder provides the search command for hybrid keyword and
// semantic search over the item corpus.
package searchcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/cliui"
	"github.com/MikeNorman/poempig/pkg/config"
	"github.com/MikeNorman/poempig/pkg/search"
	"github.com/MikeNorman/poempig/pkg/utils"
)

const previewWidth = 80

const searchLongDesc string = `Search the corpus by keyword and meaning.

Runs a hybrid search: keyword matching against titles, authors, and text,
merged with semantic similarity against the query embedding. Quote a phrase
to require a verbatim text match:

  poempig search 'hope is the thing with feathers'
  poempig search '"do not go gentle"'
  poempig search rilke --top 5

If no embedding provider is reachable the search degrades to keyword-only.`

const searchShortDesc string = "Search poems and quotes by keyword and meaning"

type searchCommander struct {
	query string
	topK  int
	quiet bool

	items             string
	vectorStoreProv   string
	embeddingProv     string
	embeddingTgt      string
	embeddingModel    string
	embeddingDims     uint
	registeredFlagKey []string
}

func NewSearchCmd() *cobra.Command {
	sc := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc.query = args[0]
			return sc.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&sc.topK, "top", "k", search.DefaultTopK, "Maximum number of results")
	cmd.Flags().BoolVarP(&sc.quiet, "quiet", "q", false, "Print item IDs only")

	sc.registeredFlagKey = []string{
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
	}
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &sc.vectorStoreProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &sc.items)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &sc.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &sc.embeddingTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &sc.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &sc.embeddingDims)

	return cmd
}

func (sc *searchCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{
		WithEmbedder: true,
		FlagKeys:     sc.registeredFlagKey,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := st.Searcher.Search(ctx, sc.query, sc.topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if sc.quiet {
		for _, r := range out.Results {
			fmt.Println(r.Item.ID)
		}
		return nil
	}

	if out.Count == 0 {
		fmt.Printf("No matches for %q\n", sc.query)
		return nil
	}

	fmt.Printf("%s\n\n", cliui.HeaderStyle.Render(fmt.Sprintf("%d matches for %q", out.Count, sc.query)))
	for i, r := range out.Results {
		printResult(i+1, r)
	}

	return nil
}

func printResult(rank int, r search.SearchResult) {
	title := r.Item.Title
	if title == "" {
		title = r.Item.ID
	}

	fmt.Printf("%s %s %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("%2d.", rank)),
		cliui.TitleStyle.Render(title),
		cliui.ScoreStyle.Render(fmt.Sprintf("(%.3f, %s)", r.Score, r.MatchedOn)),
	)
	if r.Item.Author != "" {
		fmt.Printf("    %s\n", cliui.DimStyle.Render(r.Item.Author))
	}
	if r.Item.Text != "" {
		fmt.Printf("    %s\n", cliui.DimStyle.Render(utils.Truncate(utils.Oneline(r.Item.Text), previewWidth)))
	}
	fmt.Println()
}
