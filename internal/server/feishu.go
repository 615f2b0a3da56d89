package server

import (
	"context"
	"sync"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/infra/feishu"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/service"
)

// seenTTL is how long a message ID is remembered for deduplication
const seenTTL = 5 * time.Minute

// Transport is the inbound side of the Feishu client
type Transport interface {
	OnMessage(handler feishu.MessageHandler)
	Start(ctx context.Context) error
	Stop()
}

// FeishuServer routes Feishu messages to the command and moderation services
type FeishuServer struct {
	transport Transport
	svc       *service.NightwatchService
	commands  *service.CommandService
	log       *logger.Logger

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(
	transport Transport,
	svc *service.NightwatchService,
	commands *service.CommandService,
) *FeishuServer {
	return &FeishuServer{
		transport: transport,
		svc:       svc,
		commands:  commands,
		log:       logger.Named("server"),
		seenMsgs:  make(map[string]time.Time),
	}
}

// Start listens for messages until ctx is done or the connection fails
func (s *FeishuServer) Start(ctx context.Context) error {
	s.transport.OnMessage(s.handleMessage)
	return s.transport.Start(ctx)
}

// Stop stops the server
func (s *FeishuServer) Stop() {
	s.transport.Stop()
}

// handleMessage handles Feishu messages
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	// Feishu redelivers events that were not acknowledged in time
	if !s.markMessageSeen(msg.MsgID) {
		s.log.Debug().Str("msg_id", msg.MsgID).Msg("duplicate message ignored")
		return
	}

	ctx := context.Background()
	m := toDomainMessage(msg)

	// Our own notices and replies come back as app messages
	if m.Sender.IsBot() {
		return
	}

	if s.commands.Handle(ctx, m) {
		return
	}
	// Only group and topic_group chats are moderated
	if msg.ChatType == feishu.ChatTypeP2P {
		return
	}

	verdict := s.svc.OnMessage(ctx, m)
	s.log.Debug().Str("msg_id", m.ID).Str("verdict", string(verdict)).Msg("message moderated")
}

// toDomainMessage converts a transport message. The topic is the root message of the thread;
// in a topic group the opening post has no root and is the root of its own topic.
func toDomainMessage(msg *feishu.Message) *domain.Message {
	topicID := msg.RootID
	if topicID == "" && msg.ChatType == feishu.ChatTypeTopicGroup {
		topicID = msg.MsgID
	}
	m := &domain.Message{
		ID:       msg.MsgID,
		ChatID:   msg.ChatID,
		TopicID:  topicID,
		ChatType: msg.ChatType,
		MsgType:  msg.MsgType,
		Content:  msg.Content,
	}
	if msg.CreateTime > 0 {
		m.CreateTime = time.UnixMilli(msg.CreateTime)
	}
	if msg.Sender != nil {
		m.Sender = &domain.Sender{
			OpenID:  msg.Sender.OpenID,
			UserID:  msg.Sender.UserID,
			UnionID: msg.Sender.UnionID,
			Type:    msg.Sender.SenderType,
		}
	}
	return m
}

// markMessageSeen records msgID and reports whether it was new
func (s *FeishuServer) markMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	now := time.Now()
	if ts, ok := s.seenMsgs[msgID]; ok && now.Sub(ts) < seenTTL {
		return false
	}
	s.seenMsgs[msgID] = now

	// Clean up expired records when marking new messages
	cutoff := now.Add(-seenTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
	return true
}
