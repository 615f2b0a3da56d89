package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DevRickLin/feishu-nightwatch/internal/mcp"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// This MCP server runs over stdio and relays tool calls to the nightwatch admin API.
func main() {
	// stdout carries the MCP protocol, so logs go to stderr
	opt := logger.FromEnv()
	opt.Writer = os.Stderr
	opt.Service = "nightwatch-mcp"
	logger.Init(opt)
	log := logger.Named("main")

	apiURL := os.Getenv("NIGHTWATCH_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:9876"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(mcp.NewHandler(mcp.NewClient(apiURL)), version)
	log.Info().Str("api_url", apiURL).Msg("starting MCP server on stdio")
	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server error")
	}
}
