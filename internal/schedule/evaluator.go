// Package schedule decides which announcement schedules are due at a given
// instant. Evaluation is pure: it never touches storage or playback, so the
// trigger can call it with a snapshot and unit tests can drive it with a
// fake clock.
package schedule

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

// LastRunFunc returns the most recent execution timestamp for a schedule,
// success or failure alike, and false if it has never fired.
type LastRunFunc func(scheduleID int) (time.Time, bool)

// Evaluator computes the due subset of active schedules. All wall-clock
// comparisons happen in the station's configured location; the four-hour
// offset arithmetic of older deployments is deliberately gone.
type Evaluator struct {
	loc *time.Location
}

func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{loc: loc}
}

// Location returns the evaluator's station timezone.
func (e *Evaluator) Location() *time.Location { return e.loc }

// EvaluateDue returns, in input order, the schedules whose firing condition
// holds at now. Callers pass only active records. A malformed record is
// logged and skipped without aborting the rest of the batch, and the same
// inputs always produce the same verdicts.
func (e *Evaluator) EvaluateDue(now time.Time, schedules []model.ScheduleRecord, lastRun LastRunFunc) []model.ScheduleRecord {
	local := now.In(e.loc)

	var due []model.ScheduleRecord
	for _, rec := range schedules {
		ok, err := e.isDue(local, &rec, lastRun)
		if err != nil {
			log.Warn().Err(err).Int("schedule_id", rec.ID).Str("kind", string(rec.Kind)).
				Msg("skipping malformed schedule")
			continue
		}
		if ok {
			due = append(due, rec)
		}
	}
	return due
}

func (e *Evaluator) isDue(local time.Time, rec *model.ScheduleRecord, lastRun LastRunFunc) (bool, error) {
	today := model.DateOf(local)
	if rec.WindowStart != nil && today.Before(*rec.WindowStart) {
		return false, nil
	}
	if rec.WindowEnd != nil && today.After(*rec.WindowEnd) {
		return false, nil
	}

	switch rec.Kind {
	case model.ScheduleInterval:
		return intervalDue(local, rec, lastRun), nil
	case model.ScheduleSpecificDays:
		return specificDaysDue(local, rec)
	case model.ScheduleOnce:
		return onceDue(local, rec, today, lastRun)
	default:
		return false, fmt.Errorf("unknown schedule kind %q", rec.Kind)
	}
}

// intervalDue fires on the first-ever evaluation, then again once a full
// interval has elapsed since the last attempt (failed attempts count; a
// failed dispatch waits out a whole interval before retrying).
func intervalDue(local time.Time, rec *model.ScheduleRecord, lastRun LastRunFunc) bool {
	interval := rec.Interval()
	if interval <= 0 {
		return false
	}
	last, ok := lastRun(rec.ID)
	if !ok {
		return true
	}
	return local.Sub(last) >= interval
}

func specificDaysDue(local time.Time, rec *model.ScheduleRecord) (bool, error) {
	if len(rec.DaysOfWeek) == 0 || len(rec.TimesOfDay) == 0 {
		return false, fmt.Errorf("specific-days schedule has no days or times")
	}

	dayMatch := false
	for _, name := range rec.DaysOfWeek {
		day, err := model.ParseWeekday(name)
		if err != nil {
			return false, err
		}
		if day == local.Weekday() {
			dayMatch = true
		}
	}
	if !dayMatch {
		return false, nil
	}

	for _, raw := range rec.TimesOfDay {
		tod, err := model.ParseTimeOfDay(raw)
		if err != nil {
			return false, err
		}
		if tod.Matches(local) {
			return true, nil
		}
	}
	return false, nil
}

// onceDue relies on the execution log, not a flag on the record: any prior
// entry for the schedule, regardless of outcome, means it never fires again.
func onceDue(local time.Time, rec *model.ScheduleRecord, today model.CivilDate, lastRun LastRunFunc) (bool, error) {
	if rec.WindowStart == nil {
		return false, fmt.Errorf("one-shot schedule has no fire date")
	}
	if len(rec.TimesOfDay) == 0 {
		return false, fmt.Errorf("one-shot schedule has no fire time")
	}
	tod, err := model.ParseTimeOfDay(rec.TimesOfDay[0])
	if err != nil {
		return false, err
	}

	if _, fired := lastRun(rec.ID); fired {
		return false, nil
	}
	if today != *rec.WindowStart {
		return false, nil
	}
	return tod.Matches(local), nil
}
