package domain

// Category is a notice category
type Category string

const (
	CategoryNight    Category = "night"
	CategoryVacation Category = "vacation"
)

// EmitResult is the outcome of a notice emission
type EmitResult string

const (
	EmitEmitted EmitResult = "emitted"
	EmitNotDue  EmitResult = "not_due"
)

// RunStatus is the outcome of a start or stop request
type RunStatus string

const (
	StatusStarted        RunStatus = "started"
	StatusAlreadyStarted RunStatus = "already_started"
	StatusStopped        RunStatus = "stopped"
	StatusAlreadyStopped RunStatus = "already_stopped"
)

// Well-known job IDs
const (
	JobNightNotice    = "notify_night_job"
	JobVacationNotice = "notify_vacation_job"
)

// NoticeTexts holds the notice bodies sent to topics
type NoticeTexts struct {
	NightBegin  string
	NightEnd    string
	VacationDay string
}
