package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/logging"
	mcpserver "github.com/SeaWalks/Retroarch-Playlist-Script/internal/mcp"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/metrics"
)

const serveAPIKeyEnv = "RETROARCH_PLAYLIST_SERVE_API_KEY"

var (
	serveTransport string
	servePort      int
	serveAPIKey    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI assistant integration",
	Long: `Start a Model Context Protocol (MCP) server that exposes playlist
generation to AI assistants.

Tools:
  generate_playlist  scan a ROM directory and write a .lpl playlist
  checksum           CRC32 of a file or zip member
  read_playlist      list the items of an existing playlist

Transport options:
  stdio: Standard input/output (default, for local CLI integration)
  sse:   Server-Sent Events over HTTP (requires API key)
  http:  Streamable HTTP (requires API key)

Examples:
  retroarch-playlist serve

  retroarch-playlist serve --transport http --port 8080 --serve-api-key mysecretkey

  export RETROARCH_PLAYLIST_SERVE_API_KEY=mysecretkey
  retroarch-playlist serve --transport sse --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "stdio", "Transport type: stdio, sse, or http")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port for HTTP/SSE server")
	serveCmd.Flags().StringVar(&serveAPIKey, "serve-api-key", "", "API key for HTTP authentication (or "+serveAPIKeyEnv+" env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cacheManager, cache, err := openCache()
	if err != nil {
		return err
	}
	if cacheManager != nil {
		defer func() {
			if err := cacheManager.Save(); err != nil {
				logging.Warn("Failed to save checksum cache: %v", err)
			}
		}()
	}

	metrics.InitializeMetrics()

	server, err := mcpserver.NewServer(mcpserver.ServerConfig{
		Workers: workerCount(),
		Cache:   cache,
	}, Version)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	switch serveTransport {
	case "stdio":
		go func() {
			<-sigChan
			cancel()
		}()
		fmt.Fprintln(os.Stderr, "Starting MCP server on stdio...")
		return server.RunStdio(ctx)

	case "sse":
		return runHTTPServerWithShutdown(server.NewHTTPHandler(), "SSE", sigChan)

	case "http":
		return runHTTPServerWithShutdown(server.NewStreamableHTTPHandler(), "HTTP", sigChan)

	default:
		return fmt.Errorf("unknown transport: %s (must be stdio, sse, or http)", serveTransport)
	}
}

func runHTTPServerWithShutdown(handler http.Handler, transportName string, sigChan chan os.Signal) error {
	httpAPIKey := serveAPIKey
	if httpAPIKey == "" {
		httpAPIKey = os.Getenv(serveAPIKeyEnv)
	}
	if httpAPIKey == "" {
		return fmt.Errorf("API key required for HTTP server. Use --serve-api-key or set %s environment variable", serveAPIKeyEnv)
	}

	handler = mcpserver.APIKeyMiddleware(httpAPIKey, handler)

	addr := fmt.Sprintf(":%d", servePort)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	fmt.Fprintf(os.Stderr, "Starting MCP %s server on http://localhost%s (API key authentication enabled)\n", transportName, addr)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
