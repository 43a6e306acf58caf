package cart

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

const DefaultTTL = 24 * time.Hour

// Service owns the per-session cart working copy.
type Service interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*State, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*State, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*State, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store kvstore.Store
	logg  *logger.Logger
	ttl   time.Duration
	locks *keymutex.KeyMutex
	now   func() time.Time
}

// NewService builds a cart service backed by the provided store.
func NewService(store kvstore.Store, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		store: store,
		logg:  logg,
		ttl:   ttl,
		locks: keymutex.New(),
		now:   time.Now,
	}, nil
}

type cartMeta struct {
	LastModifiedAt time.Time `json:"lastModifiedAt"`
}

// Get returns the session cart after applying the hard expiry cutoff.
func (s *service) Get(ctx context.Context, sessionID string) (*State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	var state *State
	err := s.locks.WithLock(lockKey(sessionID), func() error {
		loaded, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		state = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// AddItem inserts a product or increments its quantity, enforcing merchant
// exclusivity and the stock upper bound.
func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Product.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	if strings.TrimSpace(input.Merchant.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant ID is required")
	}
	if input.Product.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Product.Stock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is out of stock", input.Product.ID))
	}

	var state *State
	err := s.locks.WithLock(lockKey(sessionID), func() error {
		loaded, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}

		if loaded.Merchant != nil && loaded.Merchant.ID != input.Merchant.ID {
			if !input.SwitchConfirmed {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart is bound to another merchant").
					WithDetails(map[string]any{
						"merchant_switch_required": true,
						"current_merchant_id":      loaded.Merchant.ID,
						"requested_merchant_id":    input.Merchant.ID,
					})
			}
			loaded.Items = nil
			loaded.Merchant = nil
		}

		next := quantity
		idx := indexOfItem(loaded.Items, input.Product.ID)
		if idx >= 0 {
			next = loaded.Items[idx].Quantity + quantity
		}
		if next > input.Product.Stock {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity %d exceeds stock %d for product %s", next, input.Product.Stock, input.Product.ID))
		}

		if idx >= 0 {
			loaded.Items[idx].Quantity = next
			loaded.Items[idx].Stock = input.Product.Stock
			loaded.Items[idx].UnitPrice = input.Product.UnitPrice
		} else {
			loaded.Items = append(loaded.Items, Item{
				ID:         input.Product.ID,
				Name:       input.Product.Name,
				UnitPrice:  input.Product.UnitPrice,
				Quantity:   quantity,
				Stock:      input.Product.Stock,
				MerchantID: input.Merchant.ID,
			})
		}
		if loaded.Merchant == nil {
			merchant := input.Merchant
			loaded.Merchant = &merchant
		}

		if err := s.persist(ctx, sessionID, loaded); err != nil {
			return err
		}
		state = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateQuantity replaces an item's quantity. Zero removes the item.
func (s *service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	var state *State
	err := s.locks.WithLock(lockKey(sessionID), func() error {
		loaded, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}

		idx := indexOfItem(loaded.Items, productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not in cart", productID))
		}

		if quantity == 0 {
			loaded.Items = append(loaded.Items[:idx], loaded.Items[idx+1:]...)
			next, err := s.persistOrClear(ctx, sessionID, loaded)
			if err != nil {
				return err
			}
			state = next
			return nil
		}

		if quantity > loaded.Items[idx].Stock {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity %d exceeds stock %d for product %s", quantity, loaded.Items[idx].Stock, productID))
		}

		loaded.Items[idx].Quantity = quantity
		if err := s.persist(ctx, sessionID, loaded); err != nil {
			return err
		}
		state = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RemoveItem drops one item. An emptied cart clears the merchant binding and
// every persisted cart key.
func (s *service) RemoveItem(ctx context.Context, sessionID, productID string) (*State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}

	var state *State
	err := s.locks.WithLock(lockKey(sessionID), func() error {
		loaded, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}

		idx := indexOfItem(loaded.Items, productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not in cart", productID))
		}

		loaded.Items = append(loaded.Items[:idx], loaded.Items[idx+1:]...)
		next, err := s.persistOrClear(ctx, sessionID, loaded)
		if err != nil {
			return err
		}
		state = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Clear empties the cart and merchant binding unconditionally.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return s.locks.WithLock(lockKey(sessionID), func() error {
		return s.discard(ctx, sessionID)
	})
}

// load reads the persisted cart, discarding it wholesale when the
// last-modified marker is older than the TTL.
func (s *service) load(ctx context.Context, sessionID string) (*State, error) {
	var meta cartMeta
	found, err := s.store.Get(ctx, metaKey(sessionID), &meta)
	if err != nil {
		return nil, err
	}
	if !found {
		return &State{}, nil
	}
	if s.now().Sub(meta.LastModifiedAt) > s.ttl {
		s.logg.Info(ctx, fmt.Sprintf("discarding expired cart for session %s", sessionID))
		if err := s.discard(ctx, sessionID); err != nil {
			return nil, err
		}
		return &State{}, nil
	}

	state := &State{LastModifiedAt: meta.LastModifiedAt}
	if _, err := s.store.Get(ctx, itemsKey(sessionID), &state.Items); err != nil {
		return nil, err
	}
	var merchant MerchantSnapshot
	if found, err := s.store.Get(ctx, merchantKey(sessionID), &merchant); err != nil {
		return nil, err
	} else if found {
		state.Merchant = &merchant
	}

	// Self-healed or partially cleared keys can leave the item list and the
	// merchant binding out of step; either half on its own is corrupt state
	// and the cart is discarded wholesale.
	if (len(state.Items) == 0) != (state.Merchant == nil) {
		if err := s.discard(ctx, sessionID); err != nil {
			return nil, err
		}
		return &State{}, nil
	}
	return state, nil
}

func (s *service) persist(ctx context.Context, sessionID string, state *State) error {
	state.LastModifiedAt = s.now()
	if err := s.store.Set(ctx, itemsKey(sessionID), state.Items, s.ttl); err != nil {
		return err
	}
	if err := s.store.Set(ctx, merchantKey(sessionID), state.Merchant, s.ttl); err != nil {
		return err
	}
	return s.store.Set(ctx, metaKey(sessionID), cartMeta{LastModifiedAt: state.LastModifiedAt}, s.ttl)
}

// persistOrClear stores the state, or clears everything when the last item
// was removed so no orphaned merchant binding survives.
func (s *service) persistOrClear(ctx context.Context, sessionID string, state *State) (*State, error) {
	if len(state.Items) == 0 {
		if err := s.discard(ctx, sessionID); err != nil {
			return nil, err
		}
		return &State{}, nil
	}
	if err := s.persist(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) discard(ctx context.Context, sessionID string) error {
	return s.store.Remove(ctx, allKeys(sessionID)...)
}

func indexOfItem(items []Item, productID string) int {
	for i, item := range items {
		if item.ID == productID {
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
