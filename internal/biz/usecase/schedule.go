package usecase

import (
	"errors"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/telemetry"
)

// Cron expressions for the two recurring jobs
const (
	NightSchedule    = "0 * * * *" // every hour on the hour
	VacationSchedule = "0 0 * * *" // daily at midnight
)

// Triggers are the callbacks bound to the recurring jobs
type Triggers struct {
	Night    func()
	Vacation func()
}

// nextRunner is implemented by registries that know upcoming fire times
type nextRunner interface {
	Next(id string) time.Time
}

// ScheduleUsecase starts and stops the night and vacation jobs
type ScheduleUsecase struct {
	jobs     repo.JobRegistry
	triggers Triggers
	log      *logger.Logger
}

// NewScheduleUsecase creates a new schedule usecase
func NewScheduleUsecase(jobs repo.JobRegistry, triggers Triggers) *ScheduleUsecase {
	return &ScheduleUsecase{
		jobs:     jobs,
		triggers: triggers,
		log:      logger.Named("schedule"),
	}
}

// Start registers both jobs, or neither if either ID is taken
func (uc *ScheduleUsecase) Start() (domain.RunStatus, error) {
	err := uc.jobs.AddAll(
		repo.JobSpec{ID: domain.JobNightNotice, Schedule: NightSchedule, Run: uc.triggers.Night},
		repo.JobSpec{ID: domain.JobVacationNotice, Schedule: VacationSchedule, Run: uc.triggers.Vacation},
	)
	if errors.Is(err, repo.ErrJobConflict) {
		uc.log.Info().Msg("start requested but jobs already registered")
		return domain.StatusAlreadyStarted, nil
	}
	if err != nil {
		return "", err
	}

	telemetry.SetRunning(true)
	uc.log.Info().Msg("night and vacation jobs started")
	return domain.StatusStarted, nil
}

// Stop removes both jobs. A missing ID is reported, the other is still removed.
func (uc *ScheduleUsecase) Stop() domain.RunStatus {
	status := domain.StatusStopped
	for _, id := range []string{domain.JobNightNotice, domain.JobVacationNotice} {
		if err := uc.jobs.Remove(id); err != nil {
			uc.log.Info().Str("job", id).Err(err).Msg("job was not registered")
			status = domain.StatusAlreadyStopped
		}
	}

	telemetry.SetRunning(false)
	if status == domain.StatusStopped {
		uc.log.Info().Msg("night and vacation jobs stopped")
	}
	return status
}

// IsRunning reports whether both jobs are registered
func (uc *ScheduleUsecase) IsRunning() bool {
	return uc.jobs.Has(domain.JobNightNotice) && uc.jobs.Has(domain.JobVacationNotice)
}

// NextRun returns the next fire time of a job, zero when unknown
func (uc *ScheduleUsecase) NextRun(id string) time.Time {
	if n, ok := uc.jobs.(nextRunner); ok {
		return n.Next(id)
	}
	return time.Time{}
}
