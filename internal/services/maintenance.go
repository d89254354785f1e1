package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Maintainer is what the scheduled jobs need from the repositories.
type Maintainer interface {
	RecomputeRanks(ctx context.Context) error
}

// Pruner trims stored runs down to the retention cap.
type Pruner interface {
	Prune(ctx context.Context) error
}

// Maintenance runs the background jobs: hourly run pruning and a nightly
// leaderboard rank recompute.
type Maintenance struct {
	log   *zap.Logger
	users Maintainer
	runs  Pruner
	cron  *cron.Cron
}

func NewMaintenance(log *zap.Logger, users Maintainer, runs Pruner) *Maintenance {
	return &Maintenance{
		log:   log,
		users: users,
		runs:  runs,
		cron:  cron.New(),
	}
}

// Start registers and launches the jobs.
func (m *Maintenance) Start() error {
	if _, err := m.cron.AddFunc("@hourly", m.pruneRuns); err != nil {
		return err
	}
	// 03:10 server time, after the day's traffic has died down.
	if _, err := m.cron.AddFunc("10 3 * * *", m.recomputeRanks); err != nil {
		return err
	}
	m.cron.Start()
	m.log.Info("Maintenance jobs scheduled")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("Maintenance jobs stopped")
}

func (m *Maintenance) pruneRuns() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := m.runs.Prune(ctx); err != nil {
		m.log.Error("Failed to prune circuit runs", zap.Error(err))
		return
	}
	m.log.Debug("Circuit runs pruned")
}

func (m *Maintenance) recomputeRanks() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := m.users.RecomputeRanks(ctx); err != nil {
		m.log.Error("Failed to recompute world ranks", zap.Error(err))
		return
	}
	m.log.Info("World ranks recomputed")
}
