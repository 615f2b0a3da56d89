package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
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
	mu      sync.Mutex
	sent    []sentMessage
	deleted []string
	nextID  int
	sendErr error
}

func (m *mockMessageRepo) Send(ctx context.Context, chatID, topicID, text string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, TopicID: topicID, Text: text})
	m.nextID++
	return []string{fmt.Sprintf("om_%d", m.nextID)}, nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, chatID string, msgIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, msgIDs...)
	return nil
}

func (m *mockMessageRepo) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		out = append(out, s.Text)
	}
	return out
}

type mockJobRegistry struct {
	mu   sync.Mutex
	jobs map[string]repo.JobSpec
}

func newMockJobRegistry() *mockJobRegistry {
	return &mockJobRegistry{jobs: make(map[string]repo.JobSpec)}
}

func (m *mockJobRegistry) AddAll(specs ...repo.JobSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return repo.ErrJobNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *mockJobRegistry) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[id]
	return ok
}

// fire runs a registered job the way the scheduler would
func (m *mockJobRegistry) fire(id string) bool {
	m.mu.Lock()
	spec, ok := m.jobs[id]
	m.mu.Unlock()
	if ok {
		spec.Run()
	}
	return ok
}

var errSend = errors.New("send failed")

var testTexts = domain.NoticeTexts{
	NightBegin:  "night begins",
	NightEnd:    "night ends",
	VacationDay: "topic closed today",
}

func testPolicy() domain.QuietPolicy {
	return domain.QuietPolicy{
		NightBeginHour:   22,
		NightEndHour:     8,
		VacationWeekdays: []int{6},
		ChatID:           "oc_group",
		NightTopics:      []string{"om_night"},
		VacationTopics:   []string{"om_vacation"},
		ExcludedUsers:    []string{"ou_admin"},
		Location:         time.UTC,
	}
}

type fixture struct {
	clock    *domain.FixedClock
	messages *mockMessageRepo
	jobs     *mockJobRegistry
	svc      *NightwatchService
}

func newFixture(now time.Time, testMode bool) *fixture {
	f := &fixture{
		clock:    &domain.FixedClock{T: now},
		messages: &mockMessageRepo{},
		jobs:     newMockJobRegistry(),
	}
	f.svc = NewNightwatchService(NightwatchConfig{
		Mode:     domain.NewModeEvaluator(testPolicy(), f.clock),
		Messages: f.messages,
		Jobs:     f.jobs,
		Texts:    testTexts,
		TestMode: testMode,
	})
	return f
}

// weekdayAt is Wednesday 2025-03-12 at hour h, UTC
func weekdayAt(h int) time.Time {
	return time.Date(2025, 3, 12, h, 0, 0, 0, time.UTC)
}

// sundayAt is Sunday 2025-03-16 at hour h, UTC
func sundayAt(h int) time.Time {
	return time.Date(2025, 3, 16, h, 0, 0, 0, time.UTC)
}

func memberMessage(topicID string) *domain.Message {
	return &domain.Message{
		ID:      "om_member",
		ChatID:  "oc_group",
		TopicID: topicID,
		Sender:  &domain.Sender{OpenID: "ou_member", Type: domain.SenderTypeUser},
	}
}
