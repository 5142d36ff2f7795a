package mcp

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/scanner"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	// Workers is the checksum worker count used by generate_playlist
	Workers int
	// Cache is optional and shared by every tool call
	Cache scanner.Cache
}

// Server exposes playlist generation to MCP clients
type Server struct {
	mcpServer *mcp.Server
	config    ServerConfig
}

// NewServer creates a new MCP server
func NewServer(config ServerConfig, version string) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "retroarch-playlist",
		Version: version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		config:    config,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "generate_playlist",
		Description: "Scan a ROM directory and write a RetroArch .lpl playlist. Optionally computes CRC32 checksums and reads single-image zip archives.",
	}, s.handleGenerate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "checksum",
		Description: "Compute the CRC32 of a ROM file, or of the selected member of a zip archive.",
	}, s.handleChecksum)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "read_playlist",
		Description: "Read an existing RetroArch .lpl playlist and list its items.",
	}, s.handleReadPlaylist)
}

// RunStdio runs the server using stdio transport
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// NewHTTPHandler creates an HTTP handler for SSE transport
func (s *Server) NewHTTPHandler() http.Handler {
	return mcp.NewSSEHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// NewStreamableHTTPHandler creates a streamable HTTP handler
func (s *Server) NewStreamableHTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}
