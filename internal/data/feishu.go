package data

import (
	"context"
	"errors"
	"strings"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
)

// FeishuClient is the subset of the Feishu client the repository uses
type FeishuClient interface {
	SendText(ctx context.Context, chatID, rootID, text string) (string, error)
	DeleteMessage(ctx context.Context, msgID string) error
}

// feishuRepo implements the Feishu message repository
type feishuRepo struct {
	client   FeishuClient
	maxRunes int
	log      *logger.Logger
}

// NewFeishuRepo creates a new Feishu repository. Texts longer than maxRunes are split.
func NewFeishuRepo(client FeishuClient, maxRunes int) repo.MessageRepo {
	return &feishuRepo{
		client:   client,
		maxRunes: maxRunes,
		log:      logger.Named("feishu-repo"),
	}
}

// Send sends text as one or more messages, returning the IDs sent so far on failure
func (r *feishuRepo) Send(ctx context.Context, chatID, topicID, text string) ([]string, error) {
	var ids []string
	for _, part := range SplitText(text, r.maxRunes) {
		id, err := r.client.SendText(ctx, chatID, topicID, part)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	r.log.Debug().Str("chat_id", chatID).Str("topic_id", topicID).Strs("msg_ids", ids).Msg("text sent")
	return ids, nil
}

// Delete attempts every ID and joins the failures
func (r *feishuRepo) Delete(ctx context.Context, chatID string, msgIDs []string) error {
	var errs []error
	for _, id := range msgIDs {
		if err := r.client.DeleteMessage(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SplitText splits text into parts of at most maxRunes runes,
// breaking at the last newline of each window when there is one.
func SplitText(text string, maxRunes int) []string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= maxRunes {
			parts = append(parts, string(runes))
			break
		}

		window := string(runes[:maxRunes])
		// A newline at the start of the window would leave an empty part
		if idx := strings.LastIndex(window, "\n"); idx > 0 {
			head := window[:idx]
			parts = append(parts, head)
			runes = runes[len([]rune(head))+1:]
			continue
		}
		parts = append(parts, window)
		runes = runes[maxRunes:]
	}
	return parts
}
