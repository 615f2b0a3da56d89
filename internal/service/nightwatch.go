package service

import (
	"context"
	"sync"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/usecase"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/telemetry"
	"github.com/google/uuid"
)

// Tick results reported to metrics besides the emit results
const tickFailed = "error"

// NightwatchConfig holds the dependencies of the nightwatch service
type NightwatchConfig struct {
	Mode        *domain.ModeEvaluator
	Messages    repo.MessageRepo
	Journal     repo.JournalRepo // optional
	Jobs        repo.JobRegistry
	Texts       domain.NoticeTexts
	TestMode    bool // log every message and never delete
	TickTimeout time.Duration
}

// Status is a snapshot of the service state
type Status struct {
	Running        bool      `json:"running"`
	TestMode       bool      `json:"test_mode"`
	Night          bool      `json:"night"`
	VacationDay    bool      `json:"vacation_day"`
	NightLedger    []string  `json:"night_ledger"`
	VacationLedger []string  `json:"vacation_ledger"`
	NextNightRun   time.Time `json:"next_night_run"`
	NextVacRun     time.Time `json:"next_vacation_run"`
	Now            time.Time `json:"now"`
}

// NightwatchService is the composition root of the moderation core.
// Ticks, inbound messages and commands are serialized by one mutex.
type NightwatchService struct {
	mu sync.Mutex

	mode       *domain.ModeEvaluator
	schedule   *usecase.ScheduleUsecase
	notice     *usecase.NoticeUsecase
	moderation *usecase.ModerationUsecase
	journal    repo.JournalRepo

	testMode    bool
	tickTimeout time.Duration
	log         *logger.Logger
}

// NewNightwatchService creates a new nightwatch service
func NewNightwatchService(cfg NightwatchConfig) *NightwatchService {
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 2 * time.Minute
	}

	s := &NightwatchService{
		mode:        cfg.Mode,
		journal:     cfg.Journal,
		testMode:    cfg.TestMode,
		tickTimeout: cfg.TickTimeout,
		log:         logger.Named("nightwatch"),
	}
	s.schedule = usecase.NewScheduleUsecase(cfg.Jobs, usecase.Triggers{
		Night:    s.tickNight,
		Vacation: s.tickVacation,
	})
	s.notice = usecase.NewNoticeUsecase(cfg.Mode, cfg.Messages, cfg.Journal, cfg.Texts)
	s.moderation = usecase.NewModerationUsecase(cfg.Mode, s.schedule, cfg.Messages, cfg.Journal, cfg.TestMode)
	return s
}

// Start registers the night and vacation jobs
func (s *NightwatchService) Start() (domain.RunStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Start()
}

// Stop removes the night and vacation jobs. An emit already in flight completes.
func (s *NightwatchService) Stop() domain.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Stop()
}

// IsRunning reports whether the jobs are registered
func (s *NightwatchService) IsRunning() bool {
	return s.schedule.IsRunning()
}

// NightStatus reports whether night mode is active now
func (s *NightwatchService) NightStatus() bool {
	return s.mode.IsNight()
}

// VacationStatus reports whether today is a vacation day
func (s *NightwatchService) VacationStatus() bool {
	return s.mode.IsVacationDay()
}

// Status returns a snapshot of the service state
func (s *NightwatchService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.mode.Mode()
	return Status{
		Running:        s.schedule.IsRunning(),
		TestMode:       s.testMode,
		Night:          mode.IsNight,
		VacationDay:    mode.IsVacationDay,
		NightLedger:    s.notice.Ledger(domain.CategoryNight),
		VacationLedger: s.notice.Ledger(domain.CategoryVacation),
		NextNightRun:   s.schedule.NextRun(domain.JobNightNotice),
		NextVacRun:     s.schedule.NextRun(domain.JobVacationNotice),
		Now:            s.mode.Now(),
	}
}

// Ledger returns the live notice IDs of a category
func (s *NightwatchService) Ledger(category domain.Category) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice.Ledger(category)
}

// TestNight posts the night notice regardless of the hour
func (s *NightwatchService) TestNight(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.notice.EmitNight(ctx, true)
	return err
}

// TestVacation posts the vacation notice regardless of the day
func (s *NightwatchService) TestVacation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.notice.EmitVacation(ctx, true)
	return err
}

// OnMessage moderates an inbound group message
func (s *NightwatchService) OnMessage(ctx context.Context, msg *domain.Message) usecase.Verdict {
	if s.testMode {
		ev := s.log.Info().
			Str("chat_id", msg.ChatID).
			Str("topic_id", msg.TopicID).
			Str("msg_id", msg.ID)
		if msg.Sender != nil {
			ev = ev.Str("sender_id", msg.Sender.OpenID).Str("sender_type", msg.Sender.Type)
		}
		ev.Msg("message received")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moderation.Handle(ctx, msg)
}

// Journal lists the newest moderation journal entries
func (s *NightwatchService) Journal(ctx context.Context, limit int) ([]*repo.JournalEntry, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.Recent(ctx, limit)
}

func (s *NightwatchService) tickNight() {
	s.tick(domain.CategoryNight, s.notice.EmitNight)
}

func (s *NightwatchService) tickVacation() {
	s.tick(domain.CategoryVacation, s.notice.EmitVacation)
}

// tick runs one scheduled emit under the service lock
func (s *NightwatchService) tick(category domain.Category, emit func(context.Context, bool) (domain.EmitResult, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
	defer cancel()

	log := s.log.With().Str("run_id", uuid.NewString()).Str("category", string(category)).Logger()
	start := time.Now()

	s.mu.Lock()
	result, err := emit(ctx, false)
	s.mu.Unlock()

	if err != nil {
		telemetry.IncVec(telemetry.TicksTotal, string(category), tickFailed)
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("notice tick failed")
		return
	}
	telemetry.IncVec(telemetry.TicksTotal, string(category), string(result))
	log.Debug().Str("result", string(result)).Dur("elapsed", time.Since(start)).Msg("notice tick done")
}
