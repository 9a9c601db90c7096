// Package trigger drives the once-per-minute evaluation cycle.
package trigger

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/dispatch"
	"github.com/Andes-Streaming/cartwall/internal/model"
	"github.com/Andes-Streaming/cartwall/internal/schedule"
)

// Store is the snapshot the trigger needs from persistence each cycle.
type Store interface {
	ListActiveSchedules(ctx context.Context) ([]model.ScheduleRecord, error)
	LastExecutions(ctx context.Context) (map[int]time.Time, error)
}

// Locker guards a cycle so only one instance evaluates per minute when the
// server runs replicated. release is nil-safe to call once.
type Locker interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(), acquired bool, err error)
}

type Trigger struct {
	store      Store
	evaluator  *schedule.Evaluator
	dispatcher *dispatch.Dispatcher
	lock       Locker // may be nil for single-instance deployments
	tick       time.Duration
	nowFn      func() time.Time
}

func New(store Store, evaluator *schedule.Evaluator, dispatcher *dispatch.Dispatcher, lock Locker) *Trigger {
	return &Trigger{
		store:      store,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		lock:       lock,
		tick:       time.Minute,
		nowFn:      time.Now,
	}
}

// SetTickInterval overrides the default 1-minute cycle interval.
func (t *Trigger) SetTickInterval(d time.Duration) { t.tick = d }

// SetNowFunc overrides the clock (tests).
func (t *Trigger) SetNowFunc(fn func() time.Time) { t.nowFn = fn }

// Run starts the cycle loop, blocking until ctx is cancelled. The first
// cycle runs immediately so a restart does not silently skip a minute.
func (t *Trigger) Run(ctx context.Context) {
	t.RunCycle(ctx)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.RunCycle(ctx)
		}
	}
}

// RunCycle performs one evaluate-and-dispatch pass. A store failure aborts
// the whole cycle; nothing partial is attempted and the next tick retries.
func (t *Trigger) RunCycle(ctx context.Context) {
	if t.lock != nil {
		release, acquired, err := t.lock.Acquire(ctx, t.tick)
		if err != nil {
			log.Error().Err(err).Msg("cycle lock unavailable, skipping cycle")
			return
		}
		if !acquired {
			log.Debug().Msg("another instance holds the cycle lock")
			return
		}
		defer release()
	}

	// Truncate to the minute: schedule times are minute-granular and the
	// ticker may fire a few milliseconds past the boundary.
	now := t.nowFn().Truncate(time.Minute)

	schedules, err := t.store.ListActiveSchedules(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load active schedules, skipping cycle")
		return
	}
	lastRuns, err := t.store.LastExecutions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load execution log, skipping cycle")
		return
	}

	lookup := func(id int) (time.Time, bool) {
		at, ok := lastRuns[id]
		return at, ok
	}

	due := t.evaluator.EvaluateDue(now, schedules, lookup)
	if len(due) == 0 {
		return
	}
	log.Info().Int("due", len(due)).Int("active", len(schedules)).Msg("dispatching due schedules")
	t.dispatcher.Dispatch(ctx, due)
}
