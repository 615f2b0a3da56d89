package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
)

// Mock implementations

type sentMessage struct {
	ChatID  string
	TopicID string
	Text    string
}

type mockMessageRepo struct {
	sent      []sentMessage
	deleted   [][]string
	nextID    int
	parts     int   // IDs returned per Send, default 1
	sendErr   error // returned once failAfter sends succeeded
	failAfter int
	deleteErr error
}

func (m *mockMessageRepo) Send(ctx context.Context, chatID, topicID, text string) ([]string, error) {
	if m.sendErr != nil && len(m.sent) >= m.failAfter {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, TopicID: topicID, Text: text})
	parts := m.parts
	if parts == 0 {
		parts = 1
	}
	var ids []string
	for i := 0; i < parts; i++ {
		m.nextID++
		ids = append(ids, fmt.Sprintf("om_%d", m.nextID))
	}
	return ids, nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, chatID string, msgIDs []string) error {
	m.deleted = append(m.deleted, append([]string(nil), msgIDs...))
	return m.deleteErr
}

func (m *mockMessageRepo) calls() int {
	return len(m.sent) + len(m.deleted)
}

type mockJobRegistry struct {
	jobs map[string]repo.JobSpec
}

func newMockJobRegistry() *mockJobRegistry {
	return &mockJobRegistry{jobs: make(map[string]repo.JobSpec)}
}

func (m *mockJobRegistry) AddAll(specs ...repo.JobSpec) error {
	for _, s := range specs {
		if _, ok := m.jobs[s.ID]; ok {
			return fmt.Errorf("add %s: %w", s.ID, repo.ErrJobConflict)
		}
	}
	for _, s := range specs {
		m.jobs[s.ID] = s
	}
	return nil
}

func (m *mockJobRegistry) Remove(id string) error {
	if _, ok := m.jobs[id]; !ok {
		return repo.ErrJobNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *mockJobRegistry) Has(id string) bool {
	_, ok := m.jobs[id]
	return ok
}

type mockJournal struct {
	entries []*repo.JournalEntry
}

func (m *mockJournal) Record(ctx context.Context, entry *repo.JournalEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockJournal) Recent(ctx context.Context, limit int) ([]*repo.JournalEntry, error) {
	return m.entries, nil
}

func (m *mockJournal) Close() error {
	return nil
}

func (m *mockJournal) kinds() []string {
	var kinds []string
	for _, e := range m.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type staticRunState bool

func (s staticRunState) IsRunning() bool { return bool(s) }

var errSend = errors.New("send failed")

var testTexts = domain.NoticeTexts{
	NightBegin:  "night begins",
	NightEnd:    "night ends",
	VacationDay: "vacation day",
}

func testPolicy() domain.QuietPolicy {
	return domain.QuietPolicy{
		NightBeginHour:   22,
		NightEndHour:     8,
		VacationWeekdays: []int{6},
		VacationDates:    map[int][]int{1: {1, 6}},
		ChatID:           "oc_group",
		NightTopics:      []string{"om_general", "om_offtopic"},
		VacationTopics:   []string{"om_general", domain.TopicNone},
		ExcludedUsers:    []string{"ou_admin"},
		Location:         time.UTC,
	}
}

// 2025-03-12 is a Wednesday and not a listed date
func weekdayAt(hour int) time.Time {
	return time.Date(2025, time.March, 12, hour, 0, 0, 0, time.UTC)
}

// 2025-03-16 is a Sunday
func sundayAt(hour int) time.Time {
	return time.Date(2025, time.March, 16, hour, 0, 0, 0, time.UTC)
}
