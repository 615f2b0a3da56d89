package repo

import "context"

// MessageRepo is the messaging gateway
// Responsible for posting and retracting messages in Feishu chats
type MessageRepo interface {
	// Send posts text into a chat, replying in the topic thread unless topicID is domain.TopicNone.
	// Oversized text is split; the IDs of all sent parts are returned in send order.
	Send(ctx context.Context, chatID, topicID, text string) ([]string, error)

	// Delete removes messages by ID. Every ID is attempted; failures are joined.
	Delete(ctx context.Context, chatID string, msgIDs []string) error
}
