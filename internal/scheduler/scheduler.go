package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"football-data-cache/internal/events"
	"football-data-cache/internal/store"
	"football-data-cache/pkg/models"
)

// updateLogKey is where the refresh log lives in the store's metadata
// namespace; it survives cache clears
const updateLogKey = "football_update_logs"

// Refresher is the slice of the aggregation service the scheduler drives
type Refresher interface {
	ForceUpdateCache(ctx context.Context) models.RefreshReport
}

// Scheduler triggers a forced cache refresh at fixed times of day. It polls
// once a minute against a minute-granular schedule instead of computing
// exact timers: deliberately coarse, since the cache TTL is measured in
// hours and a missed minute boundary costs nothing.
//
// The scheduler is constructed and owned by the composition root; it never
// arms itself. A failed refresh is logged and the schedule keeps going —
// the next fixed slot is the retry.
type Scheduler struct {
	refresher Refresher
	store     store.Store
	bus       *events.Bus
	logger    *zap.Logger

	mu        sync.Mutex
	active    bool
	times     []string // "HH:MM", local time
	interval  time.Duration
	lastFired string // "2006-01-02 15:04" of the last triggering minute
	log       []models.UpdateLogEntry

	stop chan struct{}
	done chan struct{}
	now  func() time.Time
}

// New creates a stopped scheduler. times entries are "HH:MM" local times.
func New(refresher Refresher, st store.Store, bus *events.Bus, times []string, logger *zap.Logger) *Scheduler {
	if len(times) == 0 {
		times = []string{"00:00", "12:00"}
	}
	s := &Scheduler{
		refresher: refresher,
		store:     st,
		bus:       bus,
		logger:    logger,
		times:     times,
		interval:  time.Minute,
		now:       time.Now,
	}
	s.loadLog()
	return s
}

// WithClock overrides the scheduler's clock, used in tests
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// WithCheckInterval overrides the polling interval, used in tests
func (s *Scheduler) WithCheckInterval(interval time.Duration) *Scheduler {
	s.interval = interval
	return s
}

// Start arms the periodic schedule check. Idempotent: starting a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.logger.Info("update scheduler started",
		zap.Strings("schedules", s.times),
		zap.Duration("check_interval", s.interval))

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.checkSchedule()
			case <-stop:
				return
			}
		}
	}()
}

// Stop disarms the schedule check. Safe to call when already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("update scheduler stopped")
}

// IsActive reports whether the schedule check is armed
func (s *Scheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// checkSchedule fires the refresh when the current minute matches a
// trigger time, at most once per minute boundary
func (s *Scheduler) checkSchedule() {
	now := s.now()
	current := now.Format("15:04")

	match := false
	for _, t := range s.times {
		if t == current {
			match = true
			break
		}
	}
	if !match {
		return
	}

	minuteStamp := now.Format("2006-01-02 15:04")
	s.mu.Lock()
	if s.lastFired == minuteStamp {
		s.mu.Unlock()
		return
	}
	s.lastFired = minuteStamp
	s.mu.Unlock()

	s.logger.Info("scheduled update triggered", zap.String("slot", current))
	s.executeUpdate("scheduled")
}

// executeUpdate runs one refresh, records it in the bounded log and
// broadcasts completion. It never panics outward; a refresh failure is an
// ordinary log entry.
func (s *Scheduler) executeUpdate(trigger string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("refresh panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report := s.refresher.ForceUpdateCache(ctx)

	entry := models.UpdateLogEntry{
		Timestamp: s.now(),
		Success:   report.Success(),
	}
	if !report.Success() {
		entry.Error = fmt.Sprintf("refresh incomplete: %d of %d datasets failed",
			report.Failed, report.Total)
	}
	s.appendLog(entry)

	s.bus.Publish(events.RefreshCompleted{
		Timestamp: entry.Timestamp,
		Type:      trigger,
		Success:   entry.Success,
	})

	s.logger.Info("update executed",
		zap.String("trigger", trigger),
		zap.Bool("success", entry.Success),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("failed", report.Failed))
}

// ForceUpdate runs the refresh path immediately, outside the schedule
func (s *Scheduler) ForceUpdate() {
	s.logger.Info("manual update triggered")
	s.executeUpdate("manual")
}

// Status derives the full scheduler status. Pure computation over current
// time plus the fixed schedule; safe to call with everything else down.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := models.SchedulerStatus{
		Active:      s.active,
		Schedules:   append([]string(nil), s.times...),
		NextUpdates: s.nextUpdatesLocked(4),
	}
	status.TotalUpdates = len(s.log)
	for _, entry := range s.log {
		if entry.Success {
			status.SuccessfulUpdates++
		}
	}
	if len(s.log) > 0 {
		last := s.log[0]
		status.LastUpdate = &last
	}
	return status
}

// Log returns the bounded update log, most recent first
func (s *Scheduler) Log() []models.UpdateLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UpdateLogEntry(nil), s.log...)
}

// nextUpdatesLocked projects the trigger times over today and tomorrow and
// returns the next n chronologically
func (s *Scheduler) nextUpdatesLocked(n int) []time.Time {
	now := s.now()
	var candidates []time.Time
	for day := 0; day <= 2; day++ {
		base := now.AddDate(0, 0, day)
		for _, t := range s.times {
			parsed, err := time.ParseInLocation("15:04", t, now.Location())
			if err != nil {
				continue
			}
			candidate := time.Date(base.Year(), base.Month(), base.Day(),
				parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
			if candidate.After(now) {
				candidates = append(candidates, candidate)
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// appendLog prepends the entry, trims to the bound and persists
func (s *Scheduler) appendLog(entry models.UpdateLogEntry) {
	s.mu.Lock()
	s.log = append([]models.UpdateLogEntry{entry}, s.log...)
	if len(s.log) > models.UpdateLogLimit {
		s.log = s.log[:models.UpdateLogLimit]
	}
	snapshot := append([]models.UpdateLogEntry(nil), s.log...)
	s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn("failed to marshal update log", zap.Error(err))
		return
	}
	_ = s.store.SetMeta(context.Background(), updateLogKey, data)
}

// loadLog restores the persisted log at construction
func (s *Scheduler) loadLog() {
	data, err := s.store.GetMeta(context.Background(), updateLogKey)
	if err != nil || data == nil {
		return
	}
	var log []models.UpdateLogEntry
	if err := json.Unmarshal(data, &log); err != nil {
		s.logger.Warn("persisted update log undecodable, starting empty", zap.Error(err))
		return
	}
	if len(log) > models.UpdateLogLimit {
		log = log[:models.UpdateLogLimit]
	}
	s.log = log
}
