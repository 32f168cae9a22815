package scheduler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"football-data-cache/internal/events"
	"football-data-cache/internal/store"
	"football-data-cache/pkg/models"
)

type fakeRefresher struct {
	calls  int32
	failed int
}

func (f *fakeRefresher) ForceUpdateCache(context.Context) models.RefreshReport {
	atomic.AddInt32(&f.calls, 1)
	return models.RefreshReport{
		Total:     4,
		Refreshed: 4 - f.failed,
		Failed:    f.failed,
	}
}

func (f *fakeRefresher) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

func newTestStore(t *testing.T) store.Store {
	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "cache.db"), 12*time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScheduler_FiresOnMatchingMinute(t *testing.T) {
	refresher := &fakeRefresher{}
	s := New(refresher, newTestStore(t), events.NewBus(), []string{"12:00"}, zaptest.NewLogger(t))

	now := time.Date(2026, 3, 1, 11, 59, 30, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	s.checkSchedule()
	assert.Zero(t, refresher.callCount())

	now = time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	s.checkSchedule()
	assert.Equal(t, 1, refresher.callCount())
}

func TestScheduler_FiresOncePerMinuteBoundary(t *testing.T) {
	refresher := &fakeRefresher{}
	s := New(refresher, newTestStore(t), events.NewBus(), []string{"12:00"}, zaptest.NewLogger(t))

	now := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	// Several polls inside the same trigger minute fire exactly once
	s.checkSchedule()
	now = now.Add(20 * time.Second)
	s.checkSchedule()
	now = now.Add(20 * time.Second)
	s.checkSchedule()
	assert.Equal(t, 1, refresher.callCount())

	// The same slot the next day fires again
	now = now.AddDate(0, 0, 1)
	s.checkSchedule()
	assert.Equal(t, 2, refresher.callCount())
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	refresher := &fakeRefresher{}
	s := New(refresher, newTestStore(t), events.NewBus(), nil, zaptest.NewLogger(t)).
		WithCheckInterval(time.Hour)

	assert.False(t, s.IsActive())

	s.Start()
	s.Start()
	assert.True(t, s.IsActive())

	s.Stop()
	s.Stop()
	assert.False(t, s.IsActive())
}

func TestScheduler_ForceUpdateLogsAndBroadcasts(t *testing.T) {
	refresher := &fakeRefresher{}
	bus := events.NewBus()
	s := New(refresher, newTestStore(t), bus, nil, zaptest.NewLogger(t))

	ch, cancel := bus.Subscribe()
	defer cancel()

	s.ForceUpdate()
	assert.Equal(t, 1, refresher.callCount())

	select {
	case ev := <-ch:
		assert.Equal(t, "manual", ev.Type)
		assert.True(t, ev.Success)
	case <-time.After(time.Second):
		t.Fatal("no refresh event broadcast")
	}

	log := s.Log()
	require.Len(t, log, 1)
	assert.True(t, log[0].Success)
	assert.Empty(t, log[0].Error)
}

func TestScheduler_FailedRefreshLogged(t *testing.T) {
	refresher := &fakeRefresher{failed: 2}
	s := New(refresher, newTestStore(t), events.NewBus(), nil, zaptest.NewLogger(t))

	s.ForceUpdate()

	log := s.Log()
	require.Len(t, log, 1)
	assert.False(t, log[0].Success)
	assert.Contains(t, log[0].Error, "2 of 4")
}

func TestScheduler_LogBoundedAndNewestFirst(t *testing.T) {
	refresher := &fakeRefresher{}
	st := newTestStore(t)
	s := New(refresher, st, events.NewBus(), nil, zaptest.NewLogger(t))

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	for i := 0; i < 15; i++ {
		now = now.Add(time.Minute)
		s.ForceUpdate()
	}

	log := s.Log()
	require.Len(t, log, models.UpdateLogLimit)

	// Newest entry first
	assert.True(t, log[0].Timestamp.After(log[1].Timestamp))

	status := s.Status()
	assert.Equal(t, models.UpdateLogLimit, status.TotalUpdates)
	assert.Equal(t, models.UpdateLogLimit, status.SuccessfulUpdates)
	require.NotNil(t, status.LastUpdate)
	assert.Equal(t, log[0].Timestamp, status.LastUpdate.Timestamp)
}

func TestScheduler_LogSurvivesRestart(t *testing.T) {
	refresher := &fakeRefresher{}
	st := newTestStore(t)
	bus := events.NewBus()

	s := New(refresher, st, bus, nil, zaptest.NewLogger(t))
	s.ForceUpdate()
	s.ForceUpdate()

	// A new scheduler over the same store restores the persisted log
	restarted := New(refresher, st, bus, nil, zaptest.NewLogger(t))
	assert.Len(t, restarted.Log(), 2)
}

func TestScheduler_LogSurvivesCacheClear(t *testing.T) {
	refresher := &fakeRefresher{}
	st := newTestStore(t)
	s := New(refresher, st, events.NewBus(), nil, zaptest.NewLogger(t))

	s.ForceUpdate()
	require.NoError(t, st.Clear(context.Background()))

	restarted := New(refresher, st, events.NewBus(), nil, zaptest.NewLogger(t))
	assert.Len(t, restarted.Log(), 1)
}

func TestScheduler_StatusNextUpdates(t *testing.T) {
	s := New(&fakeRefresher{}, newTestStore(t), events.NewBus(), []string{"00:00", "12:00"}, zaptest.NewLogger(t))

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	status := s.Status()
	assert.False(t, status.Active)
	assert.Equal(t, []string{"00:00", "12:00"}, status.Schedules)
	require.Len(t, status.NextUpdates, 4)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), status.NextUpdates[0])
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), status.NextUpdates[1])
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), status.NextUpdates[2])
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), status.NextUpdates[3])
}

func TestScheduler_PanickingRefresherDoesNotCrash(t *testing.T) {
	st := newTestStore(t)
	s := New(panickyRefresher{}, st, events.NewBus(), nil, zaptest.NewLogger(t))

	assert.NotPanics(t, func() { s.ForceUpdate() })
}

type panickyRefresher struct{}

func (panickyRefresher) ForceUpdateCache(context.Context) models.RefreshReport {
	panic("refresh blew up")
}
