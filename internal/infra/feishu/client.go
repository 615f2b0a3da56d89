package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/google/uuid"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message represents a received Feishu message
type Message struct {
	ChatID     string
	MsgID      string
	RootID     string // Root message of the topic thread, empty outside topics
	ThreadID   string // Topic (omt_) ID, empty outside topics
	MsgType    string // text, image, post
	ChatType   string // p2p, group or topic_group
	Content    string // Text content, empty for non-text messages
	Sender     *Sender
	CreateTime int64 // Milliseconds Unix timestamp from Feishu
}

// Sender represents the message sender
type Sender struct {
	OpenID     string
	UserID     string
	UnionID    string
	SenderType string // user, app, anonymous
	TenantKey  string
}

// Chat types reported in chat_type
const (
	ChatTypeP2P        = "p2p"
	ChatTypeGroup      = "group"
	ChatTypeTopicGroup = "topic_group"
)

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	logLevel  larkcore.LogLevel
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	cancel    context.CancelFunc
	log       *logger.Logger
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, debug bool) *Client {
	level := larkcore.LogLevelInfo
	if debug {
		level = larkcore.LogLevelDebug
	}
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		logLevel:  level,
		larkCli:   lark.NewClient(appID, appSecret, lark.WithLogLevel(level)),
		log:       logger.Named("feishu"),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects to Feishu via WebSocket and blocks while listening for messages
func (c *Client) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	// Must return quickly so the SDK can ACK, otherwise Feishu redelivers
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(c.logLevel),
	)

	c.log.Info().Msg("starting WebSocket connection")
	return c.wsCli.Start(ctx)
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// handleMessage converts a receive event and hands it to the handler
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	if event == nil || event.Event == nil {
		return
	}
	msg := convertEvent(event.Event)
	if msg == nil {
		return
	}

	c.log.Debug().
		Str("chat_id", msg.ChatID).
		Str("msg_id", msg.MsgID).
		Str("root_id", msg.RootID).
		Str("thread_id", msg.ThreadID).
		Str("msg_type", msg.MsgType).
		Msg("message received")

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// convertEvent extracts the fields moderation needs from a receive event
func convertEvent(ev *larkim.P2MessageReceiveV1Data) *Message {
	raw := ev.Message
	if raw == nil || raw.MessageId == nil || raw.ChatId == nil {
		return nil
	}

	msg := &Message{
		ChatID:   *raw.ChatId,
		MsgID:    *raw.MessageId,
		RootID:   deref(raw.RootId),
		ThreadID: deref(raw.ThreadId),
		MsgType:  deref(raw.MessageType),
		ChatType: deref(raw.ChatType),
	}

	if raw.CreateTime != nil {
		if ts, err := strconv.ParseInt(*raw.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if ev.Sender != nil {
		msg.Sender = &Sender{
			SenderType: deref(ev.Sender.SenderType),
			TenantKey:  deref(ev.Sender.TenantKey),
		}
		if id := ev.Sender.SenderId; id != nil {
			msg.Sender.OpenID = deref(id.OpenId)
			msg.Sender.UserID = deref(id.UserId)
			msg.Sender.UnionID = deref(id.UnionId)
		}
	}

	if raw.Content != nil {
		switch msg.MsgType {
		case "text":
			msg.Content = parseTextContent(*raw.Content)
		case "post":
			msg.Content = parsePostContent(*raw.Content)
		}
	}
	return msg
}

// parseTextContent extracts text from a text message
func parseTextContent(content string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return parsed.Text
}

// parsePostContent extracts the text of a rich text message
func parsePostContent(content string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag  string `json:"tag"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}

	var lines []string
	if parsed.Title != "" {
		lines = append(lines, parsed.Title)
	}
	for _, line := range parsed.Content {
		var b strings.Builder
		for _, elem := range line {
			if elem.Tag == "text" {
				b.WriteString(elem.Text)
			}
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n")
}

// SendText posts a text message. With rootID set it replies inside that topic thread,
// otherwise it creates a message in the chat. Returns the new message ID.
func (c *Client) SendText(ctx context.Context, chatID, rootID, text string) (string, error) {
	content, _ := json.Marshal(map[string]string{"text": text})

	if rootID == "" {
		req := larkim.NewCreateMessageReqBuilder().
			ReceiveIdType(larkim.ReceiveIdTypeChatId).
			Body(larkim.NewCreateMessageReqBodyBuilder().
				ReceiveId(chatID).
				MsgType(larkim.MsgTypeText).
				Content(string(content)).
				Uuid(uuid.NewString()).
				Build()).
			Build()

		resp, err := c.larkCli.Im.Message.Create(ctx, req)
		if err != nil {
			return "", fmt.Errorf("send message failed: %w", err)
		}
		if !resp.Success() {
			return "", fmt.Errorf("send message error: code=%d msg=%s", resp.Code, resp.Msg)
		}
		return deref(resp.Data.MessageId), nil
	}

	req := larkim.NewReplyMessageReqBuilder().
		MessageId(rootID).
		Body(larkim.NewReplyMessageReqBodyBuilder().
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			ReplyInThread(true).
			Uuid(uuid.NewString()).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Reply(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reply in topic failed: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("reply in topic error: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return deref(resp.Data.MessageId), nil
}

// DeleteMessage recalls a message. The bot must be a group admin to recall member messages.
func (c *Client) DeleteMessage(ctx context.Context, msgID string) error {
	req := larkim.NewDeleteMessageReqBuilder().
		MessageId(msgID).
		Build()

	resp, err := c.larkCli.Im.Message.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("delete message %s failed: %w", msgID, err)
	}
	if !resp.Success() {
		return fmt.Errorf("delete message %s error: code=%d msg=%s", msgID, resp.Code, resp.Msg)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
