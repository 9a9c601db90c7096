package model

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleKind selects which firing rule applies to a schedule.
type ScheduleKind string

const (
	// ScheduleInterval fires every fixed duration since its last firing.
	ScheduleInterval ScheduleKind = "interval"
	// ScheduleSpecificDays fires on configured weekdays at configured times.
	ScheduleSpecificDays ScheduleKind = "specific_days"
	// ScheduleOnce fires a single time, on WindowStart at its configured time.
	ScheduleOnce ScheduleKind = "once"
)

// ValidKind reports whether k is one of the supported schedule kinds.
func ValidKind(k ScheduleKind) bool {
	switch k {
	case ScheduleInterval, ScheduleSpecificDays, ScheduleOnce:
		return true
	}
	return false
}

type ScheduleRecord struct {
	ID       int          `db:"id" json:"id"`
	Title    string       `db:"title" json:"title"`
	Filename string       `db:"filename" json:"filename"`
	Kind     ScheduleKind `db:"kind" json:"kind"`
	IsActive bool         `db:"is_active" json:"is_active"`

	// Validity window, inclusive civil dates. Nil means unbounded.
	WindowStart *CivilDate `json:"window_start"`
	WindowEnd   *CivilDate `json:"window_end"`

	// Interval payload.
	EveryHours   int `db:"every_hours" json:"every_hours"`
	EveryMinutes int `db:"every_minutes" json:"every_minutes"`

	// SpecificDays / Once payload. Days are lowercase English weekday
	// names, times are HH:MM wall-clock strings. Both come from
	// externally editable storage, so consumers must parse defensively.
	DaysOfWeek []string `json:"days_of_week"`
	TimesOfDay []string `json:"times_of_day"`

	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the configured repeat duration for interval schedules.
func (s *ScheduleRecord) Interval() time.Duration {
	return time.Duration(s.EveryHours)*time.Hour + time.Duration(s.EveryMinutes)*time.Minute
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// ExecutionLogEntry records one dispatch attempt. Entries are append-only;
// the most recent entry per schedule doubles as its "last run" marker.
type ExecutionLogEntry struct {
	ID         int64           `db:"id" json:"id"`
	ScheduleID int             `db:"schedule_id" json:"schedule_id"`
	FiredAt    time.Time       `json:"fired_at"`
	Status     ExecutionStatus `db:"status" json:"status"`
	Message    string          `db:"message" json:"message"`
}

// TimeOfDay is a minute-granular wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Matches reports whether at, truncated to the minute, equals t.
func (t TimeOfDay) Matches(at time.Time) bool {
	return at.Hour() == t.Hour && at.Minute() == t.Minute
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a lowercase English day name to a time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return d, nil
}

// CivilDate is a calendar date without a time component, compared in the
// station's local timezone.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the civil date of t in t's location.
func DateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate parses a "YYYY-MM-DD" string.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CivilDate) Before(o CivilDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d CivilDate) After(o CivilDate) bool {
	return o.Before(d)
}
