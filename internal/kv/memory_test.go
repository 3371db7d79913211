package kv

import (
	"errors"
	"testing"
)

func TestMemoryAdapterRoundTrip(t *testing.T) {
	adapter := NewMemoryAdapter(0)

	if err := adapter.Set("a", "1"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	value, ok, err := adapter.Get("a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("unexpected read: %q ok=%v err=%v", value, ok, err)
	}

	if err := adapter.Remove("a"); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if _, ok, _ := adapter.Get("a"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestMemoryAdapterQuota(t *testing.T) {
	adapter := NewMemoryAdapter(10)

	if err := adapter.Set("key", "12345"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := adapter.Set("key2", "123456789"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// Replacement of the existing value is measured against the quota
	// without double-counting the old copy.
	if err := adapter.Set("key", "54321"); err != nil {
		t.Fatalf("expected replacement to fit, got %v", err)
	}
}

func TestMemoryAdapterKeysSortedByPrefix(t *testing.T) {
	adapter := NewMemoryAdapter(0)
	for _, key := range []string{"draft_b", "draft_a", "other"} {
		if err := adapter.Set(key, "x"); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}
	}

	keys, err := adapter.Keys("draft_")
	if err != nil {
		t.Fatalf("unexpected keys error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "draft_a" || keys[1] != "draft_b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
