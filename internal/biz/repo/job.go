package repo

import "errors"

var (
	// ErrJobConflict is returned when a job ID is already registered
	ErrJobConflict = errors.New("job already registered")
	// ErrJobNotFound is returned when removing an unknown job ID
	ErrJobNotFound = errors.New("job not registered")
)

// JobSpec describes one recurring job
type JobSpec struct {
	ID       string
	Schedule string // Standard 5-field cron expression
	Run      func()
}

// JobRegistry is a named recurring-job registry
type JobRegistry interface {
	// AddAll registers every spec or none of them.
	// Returns ErrJobConflict if any ID is already registered.
	AddAll(specs ...JobSpec) error

	// Remove unregisters a job. Returns ErrJobNotFound if absent.
	Remove(id string) error

	// Has reports whether the job is registered
	Has(id string) bool
}
