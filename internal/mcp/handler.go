package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool calls using the HTTP client
type Handler struct {
	client *Client
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// EmptyInput is the input of tools without arguments
type EmptyInput struct{}

// StatusOutput is the output of nightwatch_status
type StatusOutput struct {
	Status *Status `json:"status,omitempty"`
	Error  string  `json:"error,omitempty"`
}

func (h *Handler) handleStatus(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, StatusOutput, error) {
	st, err := h.client.GetStatus(ctx)
	if err != nil {
		return nil, StatusOutput{Error: err.Error()}, nil
	}
	return nil, StatusOutput{Status: st}, nil
}

// RunOutput is the output of nightwatch_start and nightwatch_stop
type RunOutput struct {
	Result string `json:"result,omitempty"` // started, already_started, stopped, already_stopped
	Error  string `json:"error,omitempty"`
}

func (h *Handler) handleStart(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, RunOutput, error) {
	status, err := h.client.Start(ctx)
	if err != nil {
		return nil, RunOutput{Error: err.Error()}, nil
	}
	return nil, RunOutput{Result: status}, nil
}

func (h *Handler) handleStop(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, RunOutput, error) {
	status, err := h.client.Stop(ctx)
	if err != nil {
		return nil, RunOutput{Error: err.Error()}, nil
	}
	return nil, RunOutput{Result: status}, nil
}

// CategoryInput selects a notice category
type CategoryInput struct {
	Category string `json:"category" jsonschema:"notice category, night or vacation"`
}

// TestNoticeOutput is the output of nightwatch_test_notice
type TestNoticeOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) handleTestNotice(ctx context.Context, req *mcp.CallToolRequest, input CategoryInput) (*mcp.CallToolResult, TestNoticeOutput, error) {
	if err := h.client.TestNotice(ctx, input.Category); err != nil {
		return nil, TestNoticeOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, TestNoticeOutput{Success: true}, nil
}

// LedgerOutput is the output of nightwatch_ledger
type LedgerOutput struct {
	MsgIDs []string `json:"msg_ids"`
	Error  string   `json:"error,omitempty"`
}

func (h *Handler) handleLedger(ctx context.Context, req *mcp.CallToolRequest, input CategoryInput) (*mcp.CallToolResult, LedgerOutput, error) {
	ids, err := h.client.GetLedger(ctx, input.Category)
	if err != nil {
		return nil, LedgerOutput{Error: err.Error()}, nil
	}
	return nil, LedgerOutput{MsgIDs: ids}, nil
}

// JournalInput is the input of nightwatch_journal
type JournalInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries, default 50"`
}

// JournalOutput is the output of nightwatch_journal
type JournalOutput struct {
	Entries []JournalEntry `json:"entries"`
	Error   string         `json:"error,omitempty"`
}

func (h *Handler) handleJournal(ctx context.Context, req *mcp.CallToolRequest, input JournalInput) (*mcp.CallToolResult, JournalOutput, error) {
	entries, err := h.client.GetJournal(ctx, input.Limit)
	if err != nil {
		return nil, JournalOutput{Error: err.Error()}, nil
	}
	return nil, JournalOutput{Entries: entries}, nil
}
