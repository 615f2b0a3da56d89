package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// journalRepo implements the moderation journal on SQLite
type journalRepo struct {
	db *sql.DB
}

// NewJournalRepo opens (and creates if needed) the journal database
func NewJournalRepo(dbPath string) (repo.JournalRepo, error) {
	if !strings.HasPrefix(dbPath, "file:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps in-memory databases shared across calls
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			chat_id TEXT NOT NULL DEFAULT '',
			topic_id TEXT NOT NULL DEFAULT '',
			msg_id TEXT NOT NULL DEFAULT '',
			sender_id TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_created_at ON journal(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &journalRepo{db: db}, nil
}

// Record appends an entry, assigning ID and timestamp when unset
func (r *journalRepo) Record(ctx context.Context, entry *repo.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal (id, kind, category, chat_id, topic_id, msg_id, sender_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Kind, entry.Category, entry.ChatID, entry.TopicID, entry.MsgID, entry.SenderID, entry.Detail, entry.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Recent lists the newest entries first
func (r *journalRepo) Recent(ctx context.Context, limit int) ([]*repo.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, category, chat_id, topic_id, msg_id, sender_id, detail, created_at
		FROM journal
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []*repo.JournalEntry
	for rows.Next() {
		var e repo.JournalEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Category, &e.ChatID, &e.TopicID, &e.MsgID, &e.SenderID, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close closes the database connection
func (r *journalRepo) Close() error {
	return r.db.Close()
}
