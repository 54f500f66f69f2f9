// Package mcp exposes the project context store to AI agents over the
// Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/cliplin/cliplin/internal/contextstore"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes context store tools.
type Server struct {
	store       contextstore.ContextStore
	projectRoot string
	mcp         *server.MCPServer
}

// NewServer creates a new MCP server for the given project root.
func NewServer(store contextstore.ContextStore, projectRoot string) *Server {
	s := &Server{
		store:       store,
		projectRoot: projectRoot,
	}

	s.mcp = server.NewMCPServer(
		"cliplin",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP
// server.
func (s *Server) registerTools() {
	s.mcp.AddTool(queryContextTool, s.handleQueryContext)
	s.mcp.AddTool(getDocumentTool, s.handleGetDocument)
	s.mcp.AddTool(addDocumentTool, s.handleAddDocument)
	s.mcp.AddTool(updateDocumentTool, s.handleUpdateDocument)
	s.mcp.AddTool(deleteDocumentTool, s.handleDeleteDocument)
	s.mcp.AddTool(listCollectionsTool, s.handleListCollections)
	s.mcp.AddTool(collectionInfoTool, s.handleCollectionInfo)
	s.mcp.AddTool(peekCollectionTool, s.handlePeekCollection)
	s.mcp.AddTool(classifyPathTool, s.handleClassifyPath)
}

// Serve starts the MCP server on stdio. Stdout is reserved for MCP
// protocol messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
