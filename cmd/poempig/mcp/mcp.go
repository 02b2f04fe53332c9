// Package mcpcmder provides the mcp command that serves poempig search
// and vibe tools over the Model Context Protocol.
package mcpcmder

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/cmd/poempig/stack"
	"github.com/MikeNorman/poempig/pkg/config"
	"github.com/MikeNorman/poempig/pkg/mcp"
)

const defaultAddr = "localhost:8737"

const mcpLongDesc string = `Serve poempig tools over the Model Context Protocol.

Starts a streamable HTTP MCP server exposing search, find_similar,
vibe_similar, and vibe_list tools so agents can query the corpus and
vibe profiles.

Examples:
  poempig mcp
  poempig mcp --addr localhost:9000`

const mcpShortDesc string = "Serve poempig tools over MCP"

type mcpCommander struct {
	addr string

	items           string
	vectorStoreProv string
	profilePath     string
	candidateBudget int
	embeddingProv   string
	embeddingTgt    string
	embeddingModel  string
	embeddingDims   uint
	flagKeys        []string
}

func NewMCPCmd() *cobra.Command {
	mc := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mc.run(cmd)
		},
	}

	cmd.Flags().StringVar(&mc.addr, "addr", defaultAddr, "Listen address for the MCP server")

	mc.flagKeys = []string{
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagProfilePath,
		config.FlagCandidateBudget,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
	}
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &mc.vectorStoreProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &mc.items)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfilePath, &mc.profilePath)
	config.AddIntFlag(cmd, config.Flags, config.FlagCandidateBudget, &mc.candidateBudget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &mc.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &mc.embeddingTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &mc.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &mc.embeddingDims)

	return cmd
}

func (mc *mcpCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := stack.Build(ctx, cmd, stack.Options{
		WithEmbedder: true,
		FlagKeys:     mc.flagKeys,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	server, err := mcp.NewServer(mcp.Config{
		Engine:   st.Engine,
		Searcher: st.Searcher,
		Logger:   st.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	st.Logger.Info("serving MCP",
		zap.String("addr", mc.addr),
	)
	fmt.Printf("MCP server listening on http://%s\n", mc.addr)

	return http.ListenAndServe(mc.addr, server.Handler())
}
