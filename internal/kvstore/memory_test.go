package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryStore_Roundtrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := m.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || got != "v2" {
		t.Fatalf("Get = %q, %v; want v2", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound on double delete, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", m.Len())
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get: expected context.Canceled, got %v", err)
	}
	if err := m.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Set: expected context.Canceled, got %v", err)
	}
	if err := m.Delete(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Delete: expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%4))
			for j := 0; j < 50; j++ {
				_ = m.Set(ctx, key, "v")
				_, _ = m.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 4 {
		t.Fatalf("expected 4 distinct keys, got %d", m.Len())
	}
}
