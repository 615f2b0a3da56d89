package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the HTTP client for the nightwatch admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new MCP client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status mirrors the service status snapshot
type Status struct {
	Running        bool     `json:"running"`
	TestMode       bool     `json:"test_mode"`
	Night          bool     `json:"night"`
	VacationDay    bool     `json:"vacation_day"`
	NightLedger    []string `json:"night_ledger"`
	VacationLedger []string `json:"vacation_ledger"`
	NextNightRun   string   `json:"next_night_run"` // RFC 3339, zero time when stopped
	NextVacRun     string   `json:"next_vacation_run"`
	Now            string   `json:"now"`
}

// JournalEntry is one moderation journal record
type JournalEntry struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Category  string `json:"category,omitempty"`
	ChatID    string `json:"chat_id"`
	TopicID   string `json:"topic_id,omitempty"`
	MsgID     string `json:"msg_id"`
	SenderID  string `json:"sender_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"` // RFC 3339
}

// GetStatus gets the current service status
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/api/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Start starts the night and vacation jobs
func (c *Client) Start(ctx context.Context) (string, error) {
	return c.runStatus(ctx, "/api/start")
}

// Stop stops the night and vacation jobs
func (c *Client) Stop(ctx context.Context) (string, error) {
	return c.runStatus(ctx, "/api/stop")
}

// TestNotice posts a notice of category night or vacation immediately
func (c *Client) TestNotice(ctx context.Context, category string) error {
	return c.do(ctx, http.MethodPost, "/api/test/"+url.PathEscape(category), nil)
}

// GetLedger gets the live notice message IDs of a category
func (c *Client) GetLedger(ctx context.Context, category string) ([]string, error) {
	var result struct {
		MsgIDs []string `json:"msg_ids"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ledger/"+url.PathEscape(category), &result); err != nil {
		return nil, err
	}
	return result.MsgIDs, nil
}

// GetJournal gets the newest journal entries
func (c *Client) GetJournal(ctx context.Context, limit int) ([]JournalEntry, error) {
	path := "/api/journal"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var result struct {
		Entries []JournalEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, path, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

func (c *Client) runStatus(ctx context.Context, path string) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, path, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
