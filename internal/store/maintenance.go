package store

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Maintenance runs the nightly retention sweep against the store. The sweep
// removes entries nobody has refreshed within the retention window; it never
// touches entries that are merely stale, those stay available as fallbacks.
type Maintenance struct {
	store     Store
	cron      *cron.Cron
	retention time.Duration
	logger    *zap.Logger
}

// NewMaintenance creates the sweep job; Start arms it
func NewMaintenance(s Store, retention time.Duration, logger *zap.Logger) *Maintenance {
	return &Maintenance{
		store:     s,
		cron:      cron.New(),
		retention: retention,
		logger:    logger,
	}
}

// Start schedules the sweep for 03:00 daily and runs the scheduler
func (m *Maintenance) Start() error {
	_, err := m.cron.AddFunc("0 3 * * *", m.runSweep)
	if err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("cache maintenance scheduled",
		zap.Duration("retention", m.retention))
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish
func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
}

func (m *Maintenance) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := m.store.Sweep(ctx, m.retention)
	if err != nil {
		m.logger.Warn("retention sweep failed", zap.Error(err))
		return
	}
	m.logger.Info("retention sweep completed", zap.Int("removed", removed))
}
