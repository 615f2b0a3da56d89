package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/telemetry"
)

// NoticeUsecase posts and retracts transition notices and remembers
// the IDs of the live notice set per category.
// Not safe for concurrent use; callers serialize access.
type NoticeUsecase struct {
	mode     *domain.ModeEvaluator
	messages repo.MessageRepo
	journal  repo.JournalRepo
	texts    domain.NoticeTexts
	ledger   map[domain.Category][]string
	log      *logger.Logger
}

// NewNoticeUsecase creates a new notice usecase. journal may be nil.
func NewNoticeUsecase(
	mode *domain.ModeEvaluator,
	messages repo.MessageRepo,
	journal repo.JournalRepo,
	texts domain.NoticeTexts,
) *NoticeUsecase {
	return &NoticeUsecase{
		mode:     mode,
		messages: messages,
		journal:  journal,
		texts:    texts,
		ledger:   make(map[domain.Category][]string),
		log:      logger.Named("notice"),
	}
}

// EmitNight posts the night begin or end notice to every night topic.
// Unless forced, it does nothing outside the boundary hours.
func (uc *NoticeUsecase) EmitNight(ctx context.Context, force bool) (domain.EmitResult, error) {
	mode := uc.mode.Mode()
	if !force && !mode.IsNightBoundaryHour {
		return domain.EmitNotDue, nil
	}

	uc.retract(ctx, domain.CategoryNight)

	text := uc.texts.NightEnd
	if mode.IsNightBeginHour {
		text = uc.texts.NightBegin
	}
	if err := uc.post(ctx, domain.CategoryNight, uc.mode.Policy().NightTopics, text); err != nil {
		return "", err
	}
	return domain.EmitEmitted, nil
}

// EmitVacation retracts yesterday's vacation notice, then posts a new one
// to every vacation topic if today is a vacation day or force is set.
func (uc *NoticeUsecase) EmitVacation(ctx context.Context, force bool) (domain.EmitResult, error) {
	uc.retract(ctx, domain.CategoryVacation)

	if !force && !uc.mode.IsVacationDay() {
		return domain.EmitNotDue, nil
	}

	if err := uc.post(ctx, domain.CategoryVacation, uc.mode.Policy().VacationTopics, uc.texts.VacationDay); err != nil {
		return "", err
	}
	return domain.EmitEmitted, nil
}

// Ledger returns a copy of the live notice IDs for a category
func (uc *NoticeUsecase) Ledger(category domain.Category) []string {
	return slices.Clone(uc.ledger[category])
}

// retract deletes the recorded notice set and clears it. Failures are logged only.
func (uc *NoticeUsecase) retract(ctx context.Context, category domain.Category) {
	ids := uc.ledger[category]
	if len(ids) == 0 {
		return
	}

	chatID := uc.mode.Policy().ChatID
	detail := ""
	if err := uc.messages.Delete(ctx, chatID, ids); err != nil {
		detail = err.Error()
		telemetry.IncVec(telemetry.RetractFailures, string(category))
		uc.log.Warn().Err(err).Str("category", string(category)).Strs("msg_ids", ids).Msg("failed to retract previous notice")
	} else {
		telemetry.AddVec(telemetry.NoticesRetracted, len(ids), string(category))
		uc.log.Info().Str("category", string(category)).Int("count", len(ids)).Msg("previous notice retracted")
	}
	for _, id := range ids {
		record(ctx, uc.journal, &repo.JournalEntry{
			Kind:     repo.JournalRetracted,
			Category: string(category),
			ChatID:   chatID,
			MsgID:    id,
			Detail:   detail,
		})
	}

	delete(uc.ledger, category)
}

// post sends text to every topic, recording IDs as they come back.
// IDs of parts sent before a failure stay recorded so the next cycle retracts them.
func (uc *NoticeUsecase) post(ctx context.Context, category domain.Category, topics []string, text string) error {
	chatID := uc.mode.Policy().ChatID
	for _, topicID := range topics {
		ids, err := uc.messages.Send(ctx, chatID, topicID, text)
		uc.ledger[category] = append(uc.ledger[category], ids...)
		telemetry.AddVec(telemetry.NoticesSent, len(ids), string(category))
		for _, id := range ids {
			record(ctx, uc.journal, &repo.JournalEntry{
				Kind:     repo.JournalNotice,
				Category: string(category),
				ChatID:   chatID,
				TopicID:  topicID,
				MsgID:    id,
			})
		}
		if err != nil {
			telemetry.IncVec(telemetry.NoticeSendFailures, string(category))
			return fmt.Errorf("send %s notice to topic %q: %w", category, topicID, err)
		}
		uc.log.Info().Str("category", string(category)).Str("topic_id", topicID).Strs("msg_ids", ids).Msg("notice sent")
	}
	return nil
}

// record appends a journal entry if a journal is configured
func record(ctx context.Context, journal repo.JournalRepo, entry *repo.JournalEntry) {
	if journal == nil {
		return
	}
	if err := journal.Record(ctx, entry); err != nil {
		logger.Named("journal").Warn().Err(err).Str("kind", entry.Kind).Msg("failed to record journal entry")
	}
}
