package kvstore

import (
	"context"
	"testing"
	"time"
)

type snapshot struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "mb:favorites:sess-1", snapshot{Name: "corner-deli", Count: 3}, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got snapshot
	found, err := store.Get(ctx, "mb:favorites:sess-1", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !found {
		t.Fatal("expected value to be found")
	}
	if got.Name != "corner-deli" || got.Count != 3 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore()
	var got snapshot
	found, err := store.Get(context.Background(), "absent", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if found {
		t.Fatal("expected absent key")
	}
}

func TestMemoryStoreCorruptPayloadSelfHeals(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetRaw("mb:cart:sess-1", []byte("{not json"))

	var got snapshot
	found, err := store.Get(ctx, "mb:cart:sess-1", &got)
	if err != nil {
		t.Fatalf("corrupt payload must not error the caller: %v", err)
	}
	if found {
		t.Fatal("corrupt payload should read as absent")
	}
	if store.Len() != 0 {
		t.Fatal("corrupt key should have been cleared")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	if err := store.Set(ctx, "k", snapshot{Name: "x"}, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	current = current.Add(2 * time.Hour)
	var got snapshot
	found, err := store.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if found {
		t.Fatal("expired entry should read as absent")
	}
}

func TestMemoryStoreRemoveVariadic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, key := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, key, snapshot{}, 0); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	if err := store.Remove(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", store.Len())
	}
}

func TestKeyBuilder(t *testing.T) {
	if got := Key("cart", "items", "s1"); got != "mb:cart:items:s1" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := Key("favorites", "", "s1"); got != "mb:favorites:s1" {
		t.Fatalf("expected empty parts skipped, got %s", got)
	}
}
