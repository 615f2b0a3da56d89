package domain

import "time"

// Sender types reported by Feishu
const (
	SenderTypeUser      = "user"
	SenderTypeApp       = "app"
	SenderTypeAnonymous = "anonymous"
)

// Sender identifies who sent a message
type Sender struct {
	OpenID  string
	UserID  string
	UnionID string
	Type    string // user, app, anonymous
}

// IsAnonymous checks if the sender has no identity
func (s *Sender) IsAnonymous() bool {
	if s == nil || s.Type == SenderTypeAnonymous {
		return true
	}
	return s.OpenID == "" && s.UserID == "" && s.UnionID == ""
}

// IsBot checks if the sender is an app (bot) account
func (s *Sender) IsBot() bool {
	return s != nil && s.Type == SenderTypeApp
}

// IDs returns all known identities of the sender
func (s *Sender) IDs() []string {
	if s == nil {
		return nil
	}
	return []string{s.OpenID, s.UserID, s.UnionID}
}

// Message is an inbound group message as seen by the moderation core
type Message struct {
	ID         string
	ChatID     string
	TopicID    string // Root message ID of the topic thread, TopicNone for the chat itself
	ChatType   string // p2p, group
	MsgType    string // text, image, post, etc.
	Content    string // Text content, used for command parsing
	Sender     *Sender
	CreateTime time.Time
}
