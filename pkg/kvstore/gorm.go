package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/db/models"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists values in the kv_entries table for deployments without
// Redis. Expiry is enforced lazily on read; the sweeper handles stragglers.
type GormStore struct {
	conn *gorm.DB
	logg *logger.Logger
	now  func() time.Time
}

// NewGormStore wraps a gorm connection as a Store.
func NewGormStore(conn *gorm.DB, logg *logger.Logger) (*GormStore, error) {
	if conn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gorm connection required")
	}
	return &GormStore{conn: conn, logg: logg, now: time.Now}, nil
}

func (s *GormStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	var entry models.KVEntry
	err := s.conn.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read key")
	}

	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(s.now()) {
		if err := s.Remove(ctx, key); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(entry.Value), dest); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "key", key)
			s.logg.Warn(logCtx, "discarding corrupt persisted payload")
		}
		if delErr := s.Remove(ctx, key); delErr != nil {
			return false, delErr
		}
		return false, nil
	}
	return true, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode value")
	}

	entry := models.KVEntry{Key: key, Value: string(payload)}
	if ttl > 0 {
		expires := s.now().Add(ttl)
		entry.ExpiresAt = &expires
	}

	err = s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write key")
	}
	return nil
}

// RemoveExpired deletes up to batch entries whose TTL has passed, returning
// the number of rows removed.
func (s *GormStore) RemoveExpired(ctx context.Context, batch int) (int64, error) {
	if batch <= 0 {
		batch = 100
	}
	subquery := s.conn.WithContext(ctx).
		Model(&models.KVEntry{}).
		Select("key").
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Limit(batch)
	result := s.conn.WithContext(ctx).Where("key IN (?)", subquery).Delete(&models.KVEntry{})
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete expired keys")
	}
	return result.RowsAffected, nil
}

func (s *GormStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.conn.WithContext(ctx).Where("key IN ?", keys).Delete(&models.KVEntry{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete keys")
	}
	return nil
}
