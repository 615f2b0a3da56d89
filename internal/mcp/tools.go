package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names
const (
	ToolStatus     = "nightwatch_status"
	ToolStart      = "nightwatch_start"
	ToolStop       = "nightwatch_stop"
	ToolTestNotice = "nightwatch_test_notice"
	ToolLedger     = "nightwatch_ledger"
	ToolJournal    = "nightwatch_journal"
)

// NewServer creates an MCP server exposing the nightwatch operations as tools
func NewServer(h *Handler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nightwatch-tools",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolStatus,
		Description: "Show whether the night/vacation jobs are running, whether night or vacation mode is active now, and the IDs of the live notices.",
	}, h.handleStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolStart,
		Description: "Start the hourly night notice job and the daily vacation notice job. Reports already_started if they are running.",
	}, h.handleStart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolStop,
		Description: "Stop the night and vacation jobs. Member messages are no longer deleted while stopped.",
	}, h.handleStop)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolTestNotice,
		Description: "Post the night or vacation notice to its topics right now, retracting the previous one.",
	}, h.handleTestNotice)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolLedger,
		Description: "List the message IDs of the live night or vacation notice.",
	}, h.handleLedger)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolJournal,
		Description: "List recent moderation actions: deleted member messages, posted and retracted notices.",
	}, h.handleJournal)

	return server
}
