package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/metrics"
)

// KeyScanner walks persisted keys matching a pattern. The redis client
// satisfies it.
type KeyScanner interface {
	ScanKeys(ctx context.Context, pattern string, batch int64, fn func(keys []string) error) error
}

// SweepJob hard-discards carts whose last-modified marker is past the TTL.
// Expiry is already enforced lazily on read; the sweep reclaims carts no
// session ever touches again.
type SweepJob struct {
	scanner KeyScanner
	store   kvstore.Store
	metrics *metrics.SweepMetrics
	logg    *logger.Logger
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

// NewSweepJob builds the cart sweep job.
func NewSweepJob(scanner KeyScanner, store kvstore.Store, logg *logger.Logger, ttl time.Duration, batch int, m *metrics.SweepMetrics) (*SweepJob, error) {
	if scanner == nil {
		return nil, fmt.Errorf("key scanner required")
	}
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if batch <= 0 {
		batch = 100
	}
	return &SweepJob{
		scanner: scanner,
		store:   store,
		metrics: m,
		logg:    logg,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

func (j *SweepJob) Name() string { return "cart-sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	discarded := 0
	err := j.scanner.ScanKeys(ctx, MetaKeyPattern, int64(j.batch), func(keys []string) error {
		for _, key := range keys {
			sessionID, ok := SessionFromMetaKey(key)
			if !ok {
				continue
			}
			expired, err := j.expired(ctx, sessionID)
			if err != nil {
				return err
			}
			if !expired {
				continue
			}
			if err := j.store.Remove(ctx, SessionKeys(sessionID)...); err != nil {
				return fmt.Errorf("discard cart %s: %w", sessionID, err)
			}
			discarded++
		}
		return nil
	})

	if discarded > 0 {
		logCtx := j.logg.WithField(ctx, "discarded", discarded)
		j.logg.Info(logCtx, "expired carts swept")
	}
	if j.metrics != nil {
		j.metrics.AddSwept(j.Name(), discarded)
	}
	return err
}

func (j *SweepJob) expired(ctx context.Context, sessionID string) (bool, error) {
	var meta cartMeta
	found, err := j.store.Get(ctx, metaKey(sessionID), &meta)
	if err != nil {
		return false, fmt.Errorf("load cart meta %s: %w", sessionID, err)
	}
	if !found {
		// Marker gone but sibling keys may linger; clearing them is a no-op
		// when they do not.
		return true, nil
	}
	return j.now().Sub(meta.LastModifiedAt) > j.ttl, nil
}
