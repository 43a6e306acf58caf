package cron

import (
	"context"
	"fmt"

	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/metrics"
)

// expiredRemover is satisfied by the SQL-backed kv store.
type expiredRemover interface {
	RemoveExpired(ctx context.Context, batch int) (int64, error)
}

// kvRetentionJob purges expired kv_entries rows in batches. Redis expires
// keys on its own; the SQL backend needs this job.
type kvRetentionJob struct {
	store   expiredRemover
	metrics *metrics.SweepMetrics
	logg    *logger.Logger
	batch   int
}

// NewKVRetentionJob builds the expired-row purge job.
func NewKVRetentionJob(store expiredRemover, logg *logger.Logger, batch int, m *metrics.SweepMetrics) (Job, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batch <= 0 {
		batch = 100
	}
	return &kvRetentionJob{store: store, metrics: m, logg: logg, batch: batch}, nil
}

func (j *kvRetentionJob) Name() string { return "kv-retention" }

func (j *kvRetentionJob) Run(ctx context.Context) error {
	total := int64(0)
	for {
		removed, err := j.store.RemoveExpired(ctx, j.batch)
		if err != nil {
			return fmt.Errorf("remove expired entries: %w", err)
		}
		total += removed
		if removed < int64(j.batch) {
			break
		}
	}

	if total > 0 {
		logCtx := j.logg.WithField(ctx, "removed", total)
		j.logg.Info(logCtx, "expired entries purged")
	}
	if j.metrics != nil {
		j.metrics.AddSwept(j.Name(), int(total))
	}
	return nil
}
