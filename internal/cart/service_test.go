package cart

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*service, *kvstore.MemoryStore, *fakeClock) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	svc, err := NewService(store, logg, DefaultTTL)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	impl := svc.(*service)
	impl.now = clock.Now
	return impl, store, clock
}

func productA() AddItemInput {
	return AddItemInput{
		Product:  ProductInput{ID: "p1", Name: "Crate of apples", UnitPrice: decimal.NewFromInt(10), Stock: 5},
		Merchant: MerchantSnapshot{ID: "merchant-a", Name: "North Depot"},
		Quantity: 2,
	}
}

func TestAddItemTotalsAndCount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	input := AddItemInput{
		Product:  ProductInput{ID: "p2", Name: "Crate of pears", UnitPrice: decimal.RequireFromString("2.50"), Stock: 10},
		Merchant: MerchantSnapshot{ID: "merchant-a"},
		Quantity: 3,
	}
	state, err := svc.AddItem(ctx, "s1", input)
	if err != nil {
		t.Fatalf("add second item: %v", err)
	}

	if got := state.ItemCount(); got != 5 {
		t.Fatalf("expected item count 5, got %d", got)
	}
	want := decimal.RequireFromString("27.5")
	if !state.Total().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, state.Total())
	}
	sum := 0
	for _, item := range state.Items {
		sum += item.Quantity
	}
	if sum != state.ItemCount() {
		t.Fatalf("item count %d disagrees with quantity sum %d", state.ItemCount(), sum)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	state, err := svc.AddItem(ctx, "s1", productA())
	if err != nil {
		t.Fatalf("increment item: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].Quantity != 4 {
		t.Fatalf("expected single line with quantity 4, got %+v", state.Items)
	}
}

func TestAddItemRejectsZeroStock(t *testing.T) {
	svc, _, _ := newTestService(t)
	input := productA()
	input.Product.Stock = 0

	_, err := svc.AddItem(context.Background(), "s1", input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}
	state, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !state.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestAddItemStockExceededLeavesCartUnchanged(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}

	over := productA()
	over.Quantity = 4
	if _, err := svc.AddItem(ctx, "s1", over); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}

	state, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].Quantity != 2 {
		t.Fatalf("expected unchanged cart, got %+v", state.Items)
	}
}

func TestMerchantSwitchRequiresConfirmation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}

	other := AddItemInput{
		Product:  ProductInput{ID: "p9", Name: "Sack of rice", UnitPrice: decimal.NewFromInt(4), Stock: 8},
		Merchant: MerchantSnapshot{ID: "merchant-b", Name: "South Depot"},
	}

	_, err := svc.AddItem(ctx, "s1", other)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict code, got %v", err)
	}
	appErr := pkgerrors.As(err)
	details, ok := appErr.Details().(map[string]any)
	if !ok || details["merchant_switch_required"] != true {
		t.Fatalf("expected merchant_switch_required detail, got %+v", appErr.Details())
	}

	state, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Merchant == nil || state.Merchant.ID != "merchant-a" {
		t.Fatalf("expected cart still bound to merchant-a, got %+v", state.Merchant)
	}

	other.SwitchConfirmed = true
	switched, err := svc.AddItem(ctx, "s1", other)
	if err != nil {
		t.Fatalf("confirmed switch: %v", err)
	}
	if switched.Merchant == nil || switched.Merchant.ID != "merchant-b" {
		t.Fatalf("expected merchant-b binding, got %+v", switched.Merchant)
	}
	if len(switched.Items) != 1 || switched.Items[0].ID != "p9" {
		t.Fatalf("expected only merchant-b items, got %+v", switched.Items)
	}
}

func TestCorruptMerchantBindingDiscardsCart(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	store.SetRaw(merchantKey("s1"), []byte("{not json"))

	other := AddItemInput{
		Product:  ProductInput{ID: "p9", Name: "Sack of rice", UnitPrice: decimal.NewFromInt(4), Stock: 8},
		Merchant: MerchantSnapshot{ID: "merchant-b", Name: "South Depot"},
	}
	state, err := svc.AddItem(ctx, "s1", other)
	if err != nil {
		t.Fatalf("add after binding corruption: %v", err)
	}

	if state.Merchant == nil || state.Merchant.ID != "merchant-b" {
		t.Fatalf("expected merchant-b binding, got %+v", state.Merchant)
	}
	if len(state.Items) != 1 || state.Items[0].ID != "p9" {
		t.Fatalf("expected orphaned merchant-a items discarded, got %+v", state.Items)
	}
	for _, item := range state.Items {
		if item.MerchantID != "merchant-b" {
			t.Fatalf("cart holds item from merchant %s beside the %s binding", item.MerchantID, state.Merchant.ID)
		}
	}
}

func TestExpiredCartDiscardedOnLoad(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}

	clock.Advance(24*time.Hour + time.Minute)

	state, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !state.IsEmpty() || state.Merchant != nil {
		t.Fatalf("expected empty cart after expiry, got %+v", state)
	}
	if store.Len() != 0 {
		t.Fatalf("expected all cart keys cleared, got %d entries", store.Len())
	}
}

func TestUpdateQuantityZeroRemovesItemAndBinding(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}

	state, err := svc.UpdateQuantity(ctx, "s1", "p1", 0)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if !state.IsEmpty() || state.Merchant != nil {
		t.Fatalf("expected cleared cart, got %+v", state)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no persisted keys, got %d", store.Len())
	}
}

func TestUpdateQuantityStockExceeded(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := svc.UpdateQuantity(ctx, "s1", "p1", 6); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}

	state, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Items[0].Quantity != 2 {
		t.Fatalf("expected unchanged quantity 2, got %d", state.Items[0].Quantity)
	}
}

func TestUpdateQuantityUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, "s1", "nope", 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestRemoveLastItemClearsAllKeys(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	state, err := svc.RemoveItem(ctx, "s1", "p1")
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if !state.IsEmpty() || state.Merchant != nil {
		t.Fatalf("expected cleared cart, got %+v", state)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no persisted keys, got %d", store.Len())
	}
}

func TestClearEmptiesCartUnconditionally(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no persisted keys, got %d", store.Len())
	}
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	input := productA()
	input.Product.Stock = 100
	input.Quantity = 1

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, "s1", input); err != nil {
				t.Errorf("add item: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := state.ItemCount(); got != 20 {
		t.Fatalf("expected 20 items after concurrent adds, got %d", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", productA()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	state, err := svc.Get(ctx, "s2")
	if err != nil {
		t.Fatalf("get s2: %v", err)
	}
	if !state.IsEmpty() {
		t.Fatalf("expected empty cart for other session, got %+v", state)
	}
}
