package statestore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	type counter struct {
		Count   int       `json:"count"`
		ResetAt time.Time `json:"reset_at"`
	}

	if err := store.Set(ctx, "budget", counter{Count: 42, ResetAt: time.Now()}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got counter
	found, err := store.Get(ctx, "budget", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected key to be found")
	}
	if got.Count != 42 {
		t.Errorf("Count = %d, want 42", got.Count)
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore()

	var dest int
	found, err := store.Get(context.Background(), "nope", &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Errorf("missing key should report found=false")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.SetWithTTL(ctx, "ephemeral", "value", time.Millisecond); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	var dest string
	found, _ := store.Get(ctx, "ephemeral", &dest)
	if found {
		t.Errorf("expired key should report found=false")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "key", 1)
	store.Delete(ctx, "key")

	var dest int
	if found, _ := store.Get(ctx, "key", &dest); found {
		t.Errorf("deleted key should report found=false")
	}
}
