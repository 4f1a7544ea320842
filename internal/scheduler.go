package internal

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rm-hull/photo-uniqualizer/internal/batch"
	"go.uber.org/zap"
)

type StatsSource interface {
	Snapshot() batch.StatsSnapshot
}

// NewScheduler starts a job that logs the batch counters every interval.
func NewScheduler(stats StatsSource, interval time.Duration, logger *zap.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid stats interval: %s", interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(logStats, stats, logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}

func logStats(stats StatsSource, logger *zap.Logger) {
	snap := stats.Snapshot()
	logger.Info("uniqualizer stats",
		zap.Int64("requests", snap.Requests),
		zap.Int64("outputs", snap.Outputs),
		zap.Int64("failures", snap.Failures),
		zap.Int64("degraded", snap.Degraded))
}
