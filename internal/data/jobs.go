package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// JobRegistry implements repo.JobRegistry on top of a cron scheduler.
// Overlapping runs of one job are skipped and panics are recovered.
type JobRegistry struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

// NewJobRegistry creates a registry whose schedules are evaluated in loc
func NewJobRegistry(loc *time.Location) *JobRegistry {
	if loc == nil {
		loc = time.Local
	}
	l := cronLogger{log: logger.Named("cron")}
	return &JobRegistry{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler goroutine
func (r *JobRegistry) Start() {
	r.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (r *JobRegistry) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// AddAll registers every spec or none of them
func (r *JobRegistry) AddAll(specs ...repo.JobSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range specs {
		if _, ok := r.entries[s.ID]; ok {
			return fmt.Errorf("add %s: %w", s.ID, repo.ErrJobConflict)
		}
	}

	added := make([]string, 0, len(specs))
	for _, s := range specs {
		id, err := r.cron.AddFunc(s.Schedule, s.Run)
		if err != nil {
			for _, name := range added {
				r.cron.Remove(r.entries[name])
				delete(r.entries, name)
			}
			return fmt.Errorf("schedule %s (%q): %w", s.ID, s.Schedule, err)
		}
		r.entries[s.ID] = id
		added = append(added, s.ID)
	}
	return nil
}

// Remove unregisters a job by name
func (r *JobRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryID, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("remove %s: %w", id, repo.ErrJobNotFound)
	}
	r.cron.Remove(entryID)
	delete(r.entries, id)
	return nil
}

// Has reports whether a job is registered
func (r *JobRegistry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Next returns the next fire time of a job, zero if unknown or not started
func (r *JobRegistry) Next(id string) time.Time {
	r.mu.Lock()
	entryID, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return r.cron.Entry(entryID).Next
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
