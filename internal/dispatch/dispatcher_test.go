package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

type fakePlayback struct {
	calls   []string
	failOn  map[string]error
	blockOn string
}

func (f *fakePlayback) PlayNow(ctx context.Context, filename string) error {
	f.calls = append(f.calls, filename)
	if filename == f.blockOn {
		<-ctx.Done()
		return ctx.Err()
	}
	if err, ok := f.failOn[filename]; ok {
		return err
	}
	return nil
}

type fakeSink struct {
	entries []model.ExecutionLogEntry
	err     error
}

func (f *fakeSink) AppendExecutionLog(_ context.Context, e *model.ExecutionLogEntry) error {
	f.entries = append(f.entries, *e)
	return f.err
}

func record(id int, filename string) model.ScheduleRecord {
	return model.ScheduleRecord{ID: id, Filename: filename, Kind: model.ScheduleInterval, IsActive: true}
}

func TestDispatchLogsOneEntryPerAttempt(t *testing.T) {
	playback := &fakePlayback{}
	sink := &fakeSink{}
	d := New(playback, sink, nil)

	fired := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	d.SetNowFunc(func() time.Time { return fired })

	d.Dispatch(context.Background(), []model.ScheduleRecord{record(1, "a.mp3"), record(2, "b.mp3")})

	require.Len(t, sink.entries, 2)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, playback.calls)
	for _, e := range sink.entries {
		assert.Equal(t, model.ExecutionSuccess, e.Status)
		assert.Equal(t, fired, e.FiredAt)
	}
}

func TestDispatchFailureDoesNotStopBatch(t *testing.T) {
	playback := &fakePlayback{failOn: map[string]error{"a.mp3": errors.New("station unreachable")}}
	sink := &fakeSink{}
	d := New(playback, sink, nil)

	d.Dispatch(context.Background(), []model.ScheduleRecord{record(1, "a.mp3"), record(2, "b.mp3")})

	require.Len(t, sink.entries, 2)
	assert.Equal(t, model.ExecutionFailed, sink.entries[0].Status)
	assert.Equal(t, "station unreachable", sink.entries[0].Message)
	assert.Equal(t, model.ExecutionSuccess, sink.entries[1].Status)
}

func TestDispatchTimeoutIsPerCall(t *testing.T) {
	playback := &fakePlayback{blockOn: "slow.mp3"}
	sink := &fakeSink{}
	d := New(playback, sink, nil)
	d.SetCallTimeout(20 * time.Millisecond)

	start := time.Now()
	d.Dispatch(context.Background(), []model.ScheduleRecord{record(1, "slow.mp3"), record(2, "b.mp3")})
	elapsed := time.Since(start)

	require.Len(t, sink.entries, 2)
	assert.Equal(t, model.ExecutionFailed, sink.entries[0].Status)
	assert.Equal(t, model.ExecutionSuccess, sink.entries[1].Status)
	assert.Less(t, elapsed, time.Second)
}

type fakeEvents struct {
	published []model.ExecutionStatus
}

func (f *fakeEvents) PublishDispatch(_ model.ScheduleRecord, status model.ExecutionStatus, _ string) {
	f.published = append(f.published, status)
}

func TestDispatchPublishesOutcomes(t *testing.T) {
	playback := &fakePlayback{failOn: map[string]error{"a.mp3": errors.New("boom")}}
	sink := &fakeSink{}
	events := &fakeEvents{}
	d := New(playback, sink, events)

	d.Dispatch(context.Background(), []model.ScheduleRecord{record(1, "a.mp3"), record(2, "b.mp3")})

	assert.Equal(t, []model.ExecutionStatus{model.ExecutionFailed, model.ExecutionSuccess}, events.published)
}
