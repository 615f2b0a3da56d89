package repo

import (
	"context"
	"time"
)

// Journal entry kinds
const (
	JournalDeleted   = "deleted"
	JournalDryRun    = "dry_run"
	JournalNotice    = "notice"
	JournalRetracted = "retracted"
)

// JournalEntry is one audit record of a moderation action
type JournalEntry struct {
	ID        string
	Kind      string
	Category  string
	ChatID    string
	TopicID   string
	MsgID     string
	SenderID  string
	Detail    string
	CreatedAt time.Time
}

// JournalRepo is the moderation audit log.
// It is write-mostly; nothing in the core reads it back to rebuild state.
type JournalRepo interface {
	// Record appends an entry
	Record(ctx context.Context, entry *JournalEntry) error

	// Recent lists the newest entries first
	Recent(ctx context.Context, limit int) ([]*JournalEntry, error)

	// Close closes the underlying store
	Close() error
}
