package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	ScheduleKindDaily    = "daily"
	ScheduleKindWeekly   = "weekly"
	ScheduleKindInterval = "interval"
)

// Schedule is a recurring task definition. Closing a schedule disables it
// rather than deleting it, so the heartbeat simply skips disabled rows.
type Schedule struct {
	Id       uuid.UUID
	PublicId string
	Title    string

	Kind            string
	Time            string // HH:MM, daily and weekly
	DayOfWeek       string // mon..sun, weekly only
	IntervalMinutes int    // interval only

	ActionType    string
	ActionMessage string
	RepoPath      string
	Command       string
	Workdir       string
	Args          string
	TestMode      *bool

	Enabled    bool
	CreatedAt  time.Time
	DisabledAt *time.Time
}

// Label renders the cadence for user-facing summaries.
func (s *Schedule) Label() string {
	switch s.Kind {
	case ScheduleKindDaily:
		return "every day at " + s.Time
	case ScheduleKindWeekly:
		return "every " + s.DayOfWeek + " at " + s.Time
	case ScheduleKindInterval:
		return "every " + strconv.Itoa(s.IntervalMinutes) + " minutes"
	}
	return "unknown cadence"
}
