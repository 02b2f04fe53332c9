// Package mcp provides an MCP (Model Context Protocol) server exposing
// poempig search and vibe-profile tools.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/search"
	"github.com/MikeNorman/poempig/pkg/utils"
	"github.com/MikeNorman/poempig/pkg/vibe"
)

type Config struct {
	// Engine drives the vibe-profile tools
	Engine *vibe.Engine

	// Searcher drives the hybrid search tool
	Searcher *search.Searcher

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the search and vibe tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "poempig",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if c.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        findSimilarToolName,
		Description: findSimilarDescription,
	}, s.handleFindSimilar)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        vibeSimilarToolName,
		Description: vibeSimilarDescription,
	}, s.handleVibeSimilar)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        vibeListToolName,
		Description: vibeListDescription,
	}, s.handleVibeList)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
