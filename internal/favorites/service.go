package favorites

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/keymutex"
	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
)

// Entry is one favorited merchant.
type Entry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	ProductCount int       `json:"productCount"`
	AddedAt      time.Time `json:"addedAt"`
}

// MerchantInput identifies the merchant being toggled.
type MerchantInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	ProductCount int    `json:"productCount"`
}

// Service owns the session favorites registry.
type Service interface {
	Toggle(ctx context.Context, sessionID string, merchant MerchantInput) (bool, []Entry, error)
	IsFavorite(ctx context.Context, sessionID, merchantID string) (bool, error)
	List(ctx context.Context, sessionID string) ([]Entry, error)
}

type service struct {
	store kvstore.Store
	logg  *logger.Logger
	locks *keymutex.KeyMutex
	now   func() time.Time
}

// NewService builds a favorites service backed by the provided store.
func NewService(store kvstore.Store, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store: store,
		logg:  logg,
		locks: keymutex.New(),
		now:   time.Now,
	}, nil
}

func favoritesKey(sessionID string) string {
	return kvstore.Key("favorites", sessionID)
}

// Toggle adds the merchant when absent and removes it when present. Returns
// whether the merchant is now a favorite, plus the updated list.
func (s *service) Toggle(ctx context.Context, sessionID string, merchant MerchantInput) (bool, []Entry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return false, nil, err
	}
	if strings.TrimSpace(merchant.ID) == "" {
		return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant ID is required")
	}

	var added bool
	var entries []Entry
	err := s.locks.WithLock(favoritesKey(sessionID), func() error {
		current, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}

		idx := indexOf(current, merchant.ID)
		if idx >= 0 {
			current = append(current[:idx], current[idx+1:]...)
			added = false
		} else {
			current = append(current, Entry{
				ID:           merchant.ID,
				Name:         merchant.Name,
				Address:      merchant.Address,
				ProductCount: merchant.ProductCount,
				AddedAt:      s.now(),
			})
			added = true
		}

		if len(current) == 0 {
			if err := s.store.Remove(ctx, favoritesKey(sessionID)); err != nil {
				return err
			}
		} else if err := s.store.Set(ctx, favoritesKey(sessionID), current, 0); err != nil {
			return err
		}
		entries = current
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return added, entries, nil
}

// IsFavorite reports membership by merchant ID.
func (s *service) IsFavorite(ctx context.Context, sessionID, merchantID string) (bool, error) {
	if err := validateSessionID(sessionID); err != nil {
		return false, err
	}
	current, err := s.load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return indexOf(current, merchantID) >= 0, nil
}

// List returns the favorites in insertion order.
func (s *service) List(ctx context.Context, sessionID string) ([]Entry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

func (s *service) load(ctx context.Context, sessionID string) ([]Entry, error) {
	var entries []Entry
	if _, err := s.store.Get(ctx, favoritesKey(sessionID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func indexOf(entries []Entry, merchantID string) int {
	for i, entry := range entries {
		if entry.ID == merchantID {
			return i
		}
	}
	return -1
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session ID is required")
	}
	return nil
}
