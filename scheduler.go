package main

import (
	"context"
	"time"

	"wealthify/models"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// sweepConcurrency bounds parallel per-user valuations so a sweep cannot
// flood the market-data provider.
const sweepConcurrency = 4

// startScheduler arranges the daily all-users snapshot sweep at midnight and
// runs a catch-up sweep right away if none has completed yet today (e.g. the
// process was down at the trigger time). Duplicate sweeps are harmless since
// snapshots are append-only. Returns the cron so main can stop it on shutdown.
func startScheduler(g *gorm.DB) *cron.Cron {
	if sweepPending(g, time.Now()) {
		logger.Info().Msg("no snapshot sweep recorded today, running catch-up")
		runSnapshotSweep(context.Background(), g)
	}

	c := cron.New()
	if _, err := c.AddFunc("0 0 * * *", func() {
		runSnapshotSweep(context.Background(), g)
	}); err != nil {
		logger.Error().Err(err).Msg("failed to schedule snapshot sweep")
		return c
	}
	c.Start()
	return c
}

// sweepPending reports whether no sweep has completed on now's calendar day.
func sweepPending(g *gorm.DB, now time.Time) bool {
	var last models.SweepRun
	if err := g.Order("ran_at DESC").First(&last).Error; err != nil {
		return true // never ran (or unreadable): sweep now
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return last.RanAt.Before(dayStart)
}

// runSnapshotSweep records a snapshot for every user that owns at least one
// asset. Users are valued independently: one user's failure is logged and the
// rest of the sweep carries on.
func runSnapshotSweep(ctx context.Context, g *gorm.DB) {
	var userIDs []uint
	if err := g.Model(&models.Asset{}).Distinct("user_id").Pluck("user_id", &userIDs).Error; err != nil {
		logger.Error().Err(err).Msg("snapshot sweep: listing users failed")
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(sweepConcurrency)
	for _, userID := range userIDs {
		eg.Go(func() error {
			value, err := recordSnapshot(egCtx, g, userID)
			if err != nil {
				// isolate the failure: log and keep sweeping
				logger.Error().Err(err).Uint("user_id", userID).Msg("snapshot sweep: user failed")
				return nil
			}
			logger.Debug().Uint("user_id", userID).Float64("value", value).Msg("snapshot recorded")
			return nil
		})
	}
	_ = eg.Wait()

	if err := g.Create(&models.SweepRun{RanAt: time.Now()}).Error; err != nil {
		logger.Error().Err(err).Msg("snapshot sweep: recording run failed")
	}
	logger.Info().Int("users", len(userIDs)).Msg("snapshot sweep completed")
}
