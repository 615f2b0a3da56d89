package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/conf"
	"github.com/DevRickLin/feishu-nightwatch/internal/infra/feishu"
	"github.com/DevRickLin/feishu-nightwatch/internal/service"
)

// Mock implementations

type mockMessageRepo struct {
	mu      sync.Mutex
	sent    []string
	deleted []string
}

func (m *mockMessageRepo) Send(ctx context.Context, chatID, topicID, text string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return []string{fmt.Sprintf("om_sent_%d", len(m.sent))}, nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, chatID string, msgIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, msgIDs...)
	return nil
}

type mockJobRegistry struct {
	jobs map[string]bool
}

func (m *mockJobRegistry) AddAll(specs ...repo.JobSpec) error {
	for _, s := range specs {
		m.jobs[s.ID] = true
	}
	return nil
}

func (m *mockJobRegistry) Remove(id string) error {
	delete(m.jobs, id)
	return nil
}

func (m *mockJobRegistry) Has(id string) bool {
	return m.jobs[id]
}

type mockTransport struct {
	handler feishu.MessageHandler
}

func (m *mockTransport) OnMessage(handler feishu.MessageHandler) { m.handler = handler }
func (m *mockTransport) Start(ctx context.Context) error          { return nil }
func (m *mockTransport) Stop()                                    {}

func newTestServer(t *testing.T) (*mockTransport, *mockMessageRepo) {
	t.Helper()
	messages := &mockMessageRepo{}
	policy := domain.QuietPolicy{
		NightBeginHour: 22,
		NightEndHour:   8,
		ChatID:         "oc_group",
		NightTopics:    []string{"om_night"},
		Location:       time.UTC,
	}
	clock := &domain.FixedClock{T: time.Date(2025, 3, 12, 23, 0, 0, 0, time.UTC)}
	svc := service.NewNightwatchService(service.NightwatchConfig{
		Mode:     domain.NewModeEvaluator(policy, clock),
		Messages: messages,
		Jobs:     &mockJobRegistry{jobs: make(map[string]bool)},
	})
	if _, err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	commands := service.NewCommandService(svc, messages, conf.DefaultMessages(), []string{"ou_owner"}, "test")

	transport := &mockTransport{}
	s := NewFeishuServer(transport, svc, commands)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start server: %v", err)
	}
	return transport, messages
}

func groupMessage(id, rootID, openID, senderType, text string) *feishu.Message {
	return &feishu.Message{
		ChatID:   "oc_group",
		MsgID:    id,
		RootID:   rootID,
		MsgType:  "text",
		ChatType: "group",
		Content:  text,
		Sender:   &feishu.Sender{OpenID: openID, SenderType: senderType},
	}
}

func TestFeishuServer_DeletesNightTopicMessage(t *testing.T) {
	transport, messages := newTestServer(t)

	transport.handler(groupMessage("om_1", "om_night", "ou_member", "user", "hi"))
	if len(messages.deleted) != 1 || messages.deleted[0] != "om_1" {
		t.Errorf("Expected om_1 deleted, got %v", messages.deleted)
	}
}

func TestFeishuServer_ModeratesByChatType(t *testing.T) {
	tests := []struct {
		chatType    string
		wantDeleted bool
	}{
		{"group", true},
		{"topic_group", true},
		{"p2p", false},
	}
	for _, tt := range tests {
		t.Run(tt.chatType, func(t *testing.T) {
			transport, messages := newTestServer(t)

			msg := groupMessage("om_1", "om_night", "ou_member", "user", "hi")
			msg.ChatType = tt.chatType
			transport.handler(msg)
			if got := len(messages.deleted) == 1; got != tt.wantDeleted {
				t.Errorf("Expected deleted=%v, got %v", tt.wantDeleted, messages.deleted)
			}
		})
	}
}

func TestFeishuServer_DuplicateIgnored(t *testing.T) {
	transport, messages := newTestServer(t)

	msg := groupMessage("om_1", "om_night", "ou_member", "user", "hi")
	transport.handler(msg)
	transport.handler(msg)
	if len(messages.deleted) != 1 {
		t.Errorf("Expected a single delete, got %v", messages.deleted)
	}
}

func TestFeishuServer_BotMessagesIgnored(t *testing.T) {
	transport, messages := newTestServer(t)

	transport.handler(groupMessage("om_1", "om_night", "cli_bot", "app", "/nvbot_status"))
	if len(messages.deleted) != 0 || len(messages.sent) != 0 {
		t.Errorf("Expected bot message ignored, got deleted=%v sent=%v", messages.deleted, messages.sent)
	}
}

func TestFeishuServer_CommandNotModerated(t *testing.T) {
	transport, messages := newTestServer(t)

	transport.handler(groupMessage("om_1", "om_night", "ou_owner", "user", "/nvbot_status"))
	if len(messages.deleted) != 0 {
		t.Errorf("Expected command kept, got %v", messages.deleted)
	}
	if len(messages.sent) != 1 || messages.sent[0] != conf.DefaultMessages().StatusRunning {
		t.Errorf("Expected status reply, got %v", messages.sent)
	}
}

func TestToDomainMessage(t *testing.T) {
	m := toDomainMessage(&feishu.Message{
		ChatID:     "oc_group",
		MsgID:      "om_1",
		RootID:     "om_topic",
		CreateTime: 1700000000000,
		Sender:     &feishu.Sender{OpenID: "ou_1", UserID: "u_1", UnionID: "on_1", SenderType: "user"},
	})
	if m.ID != "om_1" || m.TopicID != "om_topic" || m.ChatID != "oc_group" {
		t.Errorf("Unexpected ids %+v", m)
	}
	if !m.CreateTime.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Unexpected create time %v", m.CreateTime)
	}
	if m.Sender.UserID != "u_1" || m.Sender.Type != "user" {
		t.Errorf("Unexpected sender %+v", m.Sender)
	}
}

func TestToDomainMessage_TopicOpeningPost(t *testing.T) {
	m := toDomainMessage(&feishu.Message{
		ChatID:   "oc_group",
		MsgID:    "om_topic",
		ThreadID: "omt_1",
		ChatType: "topic_group",
	})
	if m.TopicID != "om_topic" {
		t.Errorf("Expected opening post to be its own topic, got %q", m.TopicID)
	}

	m = toDomainMessage(&feishu.Message{ChatID: "oc_group", MsgID: "om_2", ChatType: "group"})
	if m.TopicID != domain.TopicNone {
		t.Errorf("Expected no topic outside topic groups, got %q", m.TopicID)
	}
}
