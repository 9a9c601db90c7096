package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

func noRuns(int) (time.Time, bool) { return time.Time{}, false }

func lastRunAt(at time.Time) LastRunFunc {
	return func(int) (time.Time, bool) { return at, true }
}

func date(y int, m time.Month, d int) *model.CivilDate {
	return &model.CivilDate{Year: y, Month: m, Day: d}
}

func intervalRecord(id, hours, minutes int) model.ScheduleRecord {
	return model.ScheduleRecord{
		ID:           id,
		Title:        "station id",
		Filename:     "station_id.mp3",
		Kind:         model.ScheduleInterval,
		IsActive:     true,
		EveryHours:   hours,
		EveryMinutes: minutes,
	}
}

func TestIntervalFirstFire(t *testing.T) {
	e := NewEvaluator(time.UTC)
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	due := e.EvaluateDue(now, []model.ScheduleRecord{intervalRecord(1, 1, 0)}, noRuns)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].ID)
}

func TestIntervalBoundary(t *testing.T) {
	e := NewEvaluator(time.UTC)
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	rec := intervalRecord(1, 1, 0)

	// 59 minutes since last run: not due.
	due := e.EvaluateDue(now, []model.ScheduleRecord{rec}, lastRunAt(now.Add(-59*time.Minute)))
	assert.Empty(t, due)

	// one second short of the interval: still not due.
	due = e.EvaluateDue(now, []model.ScheduleRecord{rec}, lastRunAt(now.Add(-time.Hour+time.Second)))
	assert.Empty(t, due)

	// exactly one interval: due.
	due = e.EvaluateDue(now, []model.ScheduleRecord{rec}, lastRunAt(now.Add(-time.Hour)))
	assert.Len(t, due, 1)
}

func TestIntervalZeroNeverDue(t *testing.T) {
	e := NewEvaluator(time.UTC)
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	due := e.EvaluateDue(now, []model.ScheduleRecord{intervalRecord(1, 0, 0)}, noRuns)
	assert.Empty(t, due)
}

func TestSpecificDaysMinuteGranularity(t *testing.T) {
	e := NewEvaluator(time.UTC)
	rec := model.ScheduleRecord{
		ID:         2,
		Kind:       model.ScheduleSpecificDays,
		IsActive:   true,
		DaysOfWeek: []string{"monday"},
		TimesOfDay: []string{"14:00"},
	}

	// Monday 14:00:30, seconds must not matter.
	monday := time.Date(2024, 6, 3, 14, 0, 30, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())
	due := e.EvaluateDue(monday, []model.ScheduleRecord{rec}, noRuns)
	assert.Len(t, due, 1)

	// one minute later: no longer due.
	due = e.EvaluateDue(monday.Add(time.Minute), []model.ScheduleRecord{rec}, noRuns)
	assert.Empty(t, due)

	// right weekday, wrong time.
	due = e.EvaluateDue(monday.Add(time.Hour), []model.ScheduleRecord{rec}, noRuns)
	assert.Empty(t, due)

	// wrong weekday, right time.
	due = e.EvaluateDue(monday.AddDate(0, 0, 1), []model.ScheduleRecord{rec}, noRuns)
	assert.Empty(t, due)
}

func TestSpecificDaysRepeatsRegardlessOfLog(t *testing.T) {
	e := NewEvaluator(time.UTC)
	rec := model.ScheduleRecord{
		ID:         2,
		Kind:       model.ScheduleSpecificDays,
		IsActive:   true,
		DaysOfWeek: []string{"monday", "friday"},
		TimesOfDay: []string{"08:30", "14:00"},
	}
	monday := time.Date(2024, 6, 3, 8, 30, 0, 0, time.UTC)

	// Specific-day schedules have no dedup window; the minute-granular
	// trigger contract is what prevents double fires.
	due := e.EvaluateDue(monday, []model.ScheduleRecord{rec}, lastRunAt(monday.Add(-time.Minute)))
	assert.Len(t, due, 1)
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	e := NewEvaluator(time.UTC)
	rec := model.ScheduleRecord{
		ID:          3,
		Kind:        model.ScheduleOnce,
		IsActive:    true,
		WindowStart: date(2024, time.June, 1),
		TimesOfDay:  []string{"09:00"},
	}
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	due := e.EvaluateDue(now, []model.ScheduleRecord{rec}, noRuns)
	require.Len(t, due, 1)

	// One log entry, even a failed one, retires the schedule forever.
	due = e.EvaluateDue(now, []model.ScheduleRecord{rec}, lastRunAt(now.Add(-time.Minute)))
	assert.Empty(t, due)

	// Wrong date, never fired: still not due.
	due = e.EvaluateDue(now.AddDate(0, 0, 1), []model.ScheduleRecord{rec}, noRuns)
	assert.Empty(t, due)
}

func TestWindowBounds(t *testing.T) {
	e := NewEvaluator(time.UTC)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	expired := intervalRecord(1, 1, 0)
	expired.WindowEnd = date(2024, time.January, 1)

	notYet := intervalRecord(2, 1, 0)
	notYet.WindowStart = date(2024, time.July, 1)

	today := intervalRecord(3, 1, 0)
	today.WindowStart = date(2024, time.June, 1)
	today.WindowEnd = date(2024, time.June, 1)

	due := e.EvaluateDue(now, []model.ScheduleRecord{expired, notYet, today}, noRuns)
	require.Len(t, due, 1)
	assert.Equal(t, 3, due[0].ID)
}

func TestMalformedRecordIsolation(t *testing.T) {
	e := NewEvaluator(time.UTC)
	monday := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)

	bad := model.ScheduleRecord{
		ID:         1,
		Kind:       model.ScheduleSpecificDays,
		IsActive:   true,
		DaysOfWeek: []string{"monday"},
		TimesOfDay: []string{"2pm"},
	}
	badDay := model.ScheduleRecord{
		ID:         2,
		Kind:       model.ScheduleSpecificDays,
		IsActive:   true,
		DaysOfWeek: []string{"someday"},
		TimesOfDay: []string{"14:00"},
	}
	good := intervalRecord(3, 0, 30)

	due := e.EvaluateDue(monday, []model.ScheduleRecord{bad, badDay, good}, noRuns)
	require.Len(t, due, 1)
	assert.Equal(t, 3, due[0].ID)
}

func TestInputOrderPreserved(t *testing.T) {
	e := NewEvaluator(time.UTC)
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	records := []model.ScheduleRecord{
		intervalRecord(9, 1, 0),
		intervalRecord(4, 0, 5),
		intervalRecord(7, 2, 0),
	}
	due := e.EvaluateDue(now, records, noRuns)
	require.Len(t, due, 3)
	assert.Equal(t, []int{9, 4, 7}, []int{due[0].ID, due[1].ID, due[2].ID})
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := NewEvaluator(time.UTC)
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	records := []model.ScheduleRecord{
		intervalRecord(1, 1, 0),
		{
			ID:         2,
			Kind:       model.ScheduleSpecificDays,
			IsActive:   true,
			DaysOfWeek: []string{"monday"},
			TimesOfDay: []string{"10:00"},
		},
	}

	first := e.EvaluateDue(now, records, noRuns)
	second := e.EvaluateDue(now, records, noRuns)
	assert.Equal(t, first, second)
}

func TestEvaluatesInStationTimezone(t *testing.T) {
	// 14:00 in Santiago (UTC-4) is 18:00 UTC; the schedule must match
	// against station wall time, not UTC.
	santiago := time.FixedZone("-04", -4*3600)
	e := NewEvaluator(santiago)

	rec := model.ScheduleRecord{
		ID:         1,
		Kind:       model.ScheduleSpecificDays,
		IsActive:   true,
		DaysOfWeek: []string{"monday"},
		TimesOfDay: []string{"14:00"},
	}
	utcNow := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)

	due := e.EvaluateDue(utcNow, []model.ScheduleRecord{rec}, noRuns)
	assert.Len(t, due, 1)
}
