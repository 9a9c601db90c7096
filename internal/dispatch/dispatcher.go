// Package dispatch acts on due schedules: it asks the streaming platform to
// play each announcement and records exactly one execution-log entry per
// attempt.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

// Playback interrupts the live stream with the given announcement file.
type Playback interface {
	PlayNow(ctx context.Context, filename string) error
}

// ExecutionSink appends dispatch outcomes to the execution log.
type ExecutionSink interface {
	AppendExecutionLog(ctx context.Context, entry *model.ExecutionLogEntry) error
}

// Publisher pushes dispatch outcomes to studio dashboards. Best effort.
type Publisher interface {
	PublishDispatch(rec model.ScheduleRecord, status model.ExecutionStatus, message string)
}

const defaultCallTimeout = 30 * time.Second

type Dispatcher struct {
	playback Playback
	sink     ExecutionSink
	events   Publisher // may be nil
	timeout  time.Duration
	nowFn    func() time.Time
}

func New(playback Playback, sink ExecutionSink, events Publisher) *Dispatcher {
	return &Dispatcher{
		playback: playback,
		sink:     sink,
		events:   events,
		timeout:  defaultCallTimeout,
		nowFn:    time.Now,
	}
}

// SetCallTimeout overrides the per-playback-call timeout.
func (d *Dispatcher) SetCallTimeout(t time.Duration) { d.timeout = t }

// SetNowFunc overrides the clock used for log timestamps (tests).
func (d *Dispatcher) SetNowFunc(fn func() time.Time) { d.nowFn = fn }

// Dispatch attempts every due schedule in order. A failed playback call is
// logged as such and never prevents the remaining records from being tried;
// there are no retries within a cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, due []model.ScheduleRecord) {
	for _, rec := range due {
		d.dispatchOne(ctx, rec)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, rec model.ScheduleRecord) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	err := d.playback.PlayNow(callCtx, rec.Filename)
	cancel()

	status := model.ExecutionSuccess
	message := "queued for playback"
	if err != nil {
		status = model.ExecutionFailed
		message = err.Error()
		log.Error().Err(err).Int("schedule_id", rec.ID).Str("filename", rec.Filename).
			Msg("playback dispatch failed")
	} else {
		log.Info().Int("schedule_id", rec.ID).Str("filename", rec.Filename).
			Msg("announcement dispatched")
	}

	entry := &model.ExecutionLogEntry{
		ScheduleID: rec.ID,
		FiredAt:    d.nowFn(),
		Status:     status,
		Message:    message,
	}
	if err := d.sink.AppendExecutionLog(ctx, entry); err != nil {
		log.Error().Err(err).Int("schedule_id", rec.ID).Msg("could not append execution log")
	}

	if d.events != nil {
		d.events.PublishDispatch(rec, status, message)
	}
}
