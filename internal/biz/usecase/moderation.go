package usecase

import (
	"context"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/telemetry"
)

// RunState reports whether the recurring jobs are active
type RunState interface {
	IsRunning() bool
}

// Verdict is the outcome of moderating one message
type Verdict string

const (
	VerdictKept    Verdict = "kept"
	VerdictDeleted Verdict = "deleted"
	VerdictDryRun  Verdict = "dry_run"
)

// ModerationUsecase decides whether inbound messages fall in a silenced
// topic during a quiet window and removes them
type ModerationUsecase struct {
	mode     *domain.ModeEvaluator
	state    RunState
	messages repo.MessageRepo
	journal  repo.JournalRepo
	dryRun   bool
	log      *logger.Logger
}

// NewModerationUsecase creates a new moderation usecase.
// With dryRun set, matching messages are logged but not deleted.
func NewModerationUsecase(
	mode *domain.ModeEvaluator,
	state RunState,
	messages repo.MessageRepo,
	journal repo.JournalRepo,
	dryRun bool,
) *ModerationUsecase {
	return &ModerationUsecase{
		mode:     mode,
		state:    state,
		messages: messages,
		journal:  journal,
		dryRun:   dryRun,
		log:      logger.Named("moderation"),
	}
}

// IsUserValid reports whether the sender is subject to moderation.
// Anonymous senders, bots and excluded users are exempt.
func (uc *ModerationUsecase) IsUserValid(msg *domain.Message) bool {
	reason := ""
	switch {
	case msg.Sender.IsAnonymous():
		reason = "anonymous"
	case msg.Sender.IsBot():
		reason = "bot"
	case uc.mode.Policy().IsExcluded(msg.Sender.IDs()...):
		reason = "excluded"
	}
	if reason == "" {
		return true
	}

	telemetry.IncVec(telemetry.SendersExempted, reason)
	ev := uc.log.Info().Str("msg_id", msg.ID).Str("reason", reason)
	if msg.Sender != nil {
		ev = ev.Str("sender_id", msg.Sender.OpenID)
	}
	ev.Msg("sender exempt from moderation")
	return false
}

// ShouldDelete reports whether msg must be removed now.
// Night topics take precedence over vacation topics.
func (uc *ModerationUsecase) ShouldDelete(msg *domain.Message) bool {
	if !uc.state.IsRunning() {
		return false
	}
	mode := uc.mode.Mode()
	if !mode.IsNight && !mode.IsVacationDay {
		return false
	}
	if !uc.IsUserValid(msg) {
		return false
	}

	policy := uc.mode.Policy()
	if msg.ChatID != policy.ChatID {
		return false
	}
	if mode.IsNight {
		return policy.IsNightTopic(msg.TopicID)
	}
	return policy.IsVacationTopic(msg.TopicID)
}

// Handle moderates one message. Deletion failures are logged, not returned.
func (uc *ModerationUsecase) Handle(ctx context.Context, msg *domain.Message) Verdict {
	if !uc.ShouldDelete(msg) {
		return VerdictKept
	}

	entry := &repo.JournalEntry{
		ChatID:  msg.ChatID,
		TopicID: msg.TopicID,
		MsgID:   msg.ID,
	}
	if msg.Sender != nil {
		entry.SenderID = msg.Sender.OpenID
	}

	if uc.dryRun {
		telemetry.Inc(telemetry.MessagesDryRun)
		uc.log.Info().Str("msg_id", msg.ID).Str("topic_id", msg.TopicID).Msg("test mode, message would be deleted")
		entry.Kind = repo.JournalDryRun
		record(ctx, uc.journal, entry)
		return VerdictDryRun
	}

	entry.Kind = repo.JournalDeleted
	if err := uc.messages.Delete(ctx, msg.ChatID, []string{msg.ID}); err != nil {
		telemetry.Inc(telemetry.DeleteFailures)
		uc.log.Warn().Err(err).Str("msg_id", msg.ID).Msg("failed to delete message")
		entry.Detail = err.Error()
	} else {
		telemetry.Inc(telemetry.MessagesDeleted)
		uc.log.Info().Str("msg_id", msg.ID).Str("topic_id", msg.TopicID).Msg("message deleted")
	}
	record(ctx, uc.journal, entry)
	return VerdictDeleted
}
