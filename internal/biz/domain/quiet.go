package domain

import (
	"slices"
	"time"
)

// TopicNone targets the chat itself instead of a topic thread
const TopicNone = ""

// QuietPolicy is the immutable moderation configuration (value object)
type QuietPolicy struct {
	NightBeginHour   int           // 0-23
	NightEndHour     int           // 0-23
	VacationWeekdays []int         // 0=Monday ... 6=Sunday
	VacationDates    map[int][]int // month (1-12) -> days of month
	ChatID           string        // Target topic group
	NightTopics      []string      // Topic root message IDs silenced at night
	VacationTopics   []string      // Topic root message IDs silenced on vacation days
	ExcludedUsers    []string      // open_id, user_id or union_id
	Location         *time.Location
}

// IsNightTopic reports whether topicID is silenced at night
func (p QuietPolicy) IsNightTopic(topicID string) bool {
	return slices.Contains(p.NightTopics, topicID)
}

// IsVacationTopic reports whether topicID is silenced on vacation days
func (p QuietPolicy) IsVacationTopic(topicID string) bool {
	return slices.Contains(p.VacationTopics, topicID)
}

// IsExcluded reports whether any of the given identities is exempt from moderation
func (p QuietPolicy) IsExcluded(ids ...string) bool {
	for _, id := range ids {
		if id != "" && slices.Contains(p.ExcludedUsers, id) {
			return true
		}
	}
	return false
}

// Mode is a snapshot of the quiet windows at one instant
type Mode struct {
	IsNight             bool
	IsNightBoundaryHour bool
	IsNightBeginHour    bool
	IsVacationDay       bool
}

// ModeEvaluator answers window queries from a Clock and a QuietPolicy.
// It holds no state; every call reads the clock again.
type ModeEvaluator struct {
	policy QuietPolicy
	clock  Clock
}

// NewModeEvaluator creates a new mode evaluator
func NewModeEvaluator(policy QuietPolicy, clock Clock) *ModeEvaluator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ModeEvaluator{policy: policy, clock: clock}
}

// Policy returns the evaluator's policy
func (e *ModeEvaluator) Policy() QuietPolicy {
	return e.policy
}

// Now reads the clock in the policy location
func (e *ModeEvaluator) Now() time.Time {
	t := e.clock.Now()
	if e.policy.Location != nil {
		t = t.In(e.policy.Location)
	}
	return t
}

// IsNight reports hour >= begin || hour < end.
// A begin <= end configuration is not corrected.
func (e *ModeEvaluator) IsNight() bool {
	return e.ModeAt(e.Now()).IsNight
}

// IsNightBoundaryHour reports whether the current hour is the begin or end hour
func (e *ModeEvaluator) IsNightBoundaryHour() bool {
	return e.ModeAt(e.Now()).IsNightBoundaryHour
}

// IsNightBeginHour reports whether the current hour is the begin hour
func (e *ModeEvaluator) IsNightBeginHour() bool {
	return e.ModeAt(e.Now()).IsNightBeginHour
}

// IsVacationDay reports whether today is a vacation weekday or listed date
func (e *ModeEvaluator) IsVacationDay() bool {
	return e.ModeAt(e.Now()).IsVacationDay
}

// Mode evaluates all windows against a single clock reading
func (e *ModeEvaluator) Mode() Mode {
	return e.ModeAt(e.Now())
}

// ModeAt evaluates all windows at t
func (e *ModeEvaluator) ModeAt(t time.Time) Mode {
	hour := t.Hour()
	p := e.policy
	return Mode{
		IsNight:             hour >= p.NightBeginHour || hour < p.NightEndHour,
		IsNightBoundaryHour: hour == p.NightBeginHour || hour == p.NightEndHour,
		IsNightBeginHour:    hour == p.NightBeginHour,
		IsVacationDay:       isVacationDay(p, t),
	}
}

func isVacationDay(p QuietPolicy, t time.Time) bool {
	if slices.Contains(p.VacationWeekdays, MondayFirstWeekday(t.Weekday())) {
		return true
	}
	return slices.Contains(p.VacationDates[int(t.Month())], t.Day())
}

// MondayFirstWeekday converts time.Weekday (Sunday=0) to Monday=0 ... Sunday=6
func MondayFirstWeekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
