package kv

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestAdapter(t *testing.T, quotaBytes int64) *SQLiteAdapter {
	t.Helper()
	dsn := fmt.Sprintf("file:daybook_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	adapter, err := OpenSQLite(SQLiteConfig{Path: dsn, QuotaBytes: quotaBytes})
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	t.Cleanup(func() {
		adapter.Close() //nolint:errcheck
	})
	return adapter
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite(SQLiteConfig{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestSetGetRemove(t *testing.T) {
	adapter := newTestAdapter(t, 0)

	if _, ok, err := adapter.Get("journalEntries"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := adapter.Set("journalEntries", `{"2026-08-31":{}}`); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	value, ok, err := adapter.Get("journalEntries")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if !ok || value != `{"2026-08-31":{}}` {
		t.Fatalf("unexpected stored value: ok=%v %q", ok, value)
	}

	if err := adapter.Set("journalEntries", `{}`); err != nil {
		t.Fatalf("unexpected overwrite error: %v", err)
	}
	value, _, _ = adapter.Get("journalEntries")
	if value != `{}` {
		t.Fatalf("expected overwrite to win, got %q", value)
	}

	if err := adapter.Remove("journalEntries"); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if _, ok, _ := adapter.Get("journalEntries"); ok {
		t.Fatalf("expected key to be removed")
	}

	if err := adapter.Remove("journalEntries"); err != nil {
		t.Fatalf("removing an absent key must not fail: %v", err)
	}
}

func TestQuotaExceededLeavesPriorValueIntact(t *testing.T) {
	adapter := newTestAdapter(t, 32)

	if err := adapter.Set("k", "small"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	err := adapter.Set("k", string(make([]byte, 64)))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}

	value, ok, _ := adapter.Get("k")
	if !ok || value != "small" {
		t.Fatalf("expected prior value preserved, got ok=%v %q", ok, value)
	}
}

func TestQuotaCountsReplacedValueOnce(t *testing.T) {
	adapter := newTestAdapter(t, 24)

	if err := adapter.Set("key", "0123456789"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	// Replacing the existing 13 stored bytes with a same-sized payload must
	// fit even though two copies would not.
	if err := adapter.Set("key", "abcdefghij"); err != nil {
		t.Fatalf("expected in-place replacement to fit, got %v", err)
	}
}

func TestKeysMatchesPrefixLiterally(t *testing.T) {
	adapter := newTestAdapter(t, 0)
	seed := map[string]string{
		"draft_2026-08-30": "a",
		"draft_2026-08-31": "b",
		"draftX2026-08-31": "c",
		"journalEntries":   "d",
	}
	for key, value := range seed {
		if err := adapter.Set(key, value); err != nil {
			t.Fatalf("unexpected seed error for %s: %v", key, err)
		}
	}

	keys, err := adapter.Keys("draft_")
	if err != nil {
		t.Fatalf("unexpected keys error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected underscore to match literally, got %v", keys)
	}
	if keys[0] != "draft_2026-08-30" || keys[1] != "draft_2026-08-31" {
		t.Fatalf("unexpected key order: %v", keys)
	}
}
