package storage

import (
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "feeds.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreMarksAndExpiresEntries(t *testing.T) {
	store := openTestStore(t, Options{EntryTTL: time.Hour, CleanupInterval: time.Hour})
	clock := time.Now()
	store.now = func() time.Time { return clock }

	ids := []string{"op-1100", "op-1101"}
	unseen, err := store.Unseen("One Piece", ids)
	if err != nil || !slices.Equal(unseen, ids) {
		t.Fatalf("expected all entries unseen, got %v err=%v", unseen, err)
	}

	if err := store.MarkSeen("One Piece", []string{"op-1100"}); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	unseen, err = store.Unseen("one piece ", ids)
	if err != nil || !slices.Equal(unseen, []string{"op-1101"}) {
		t.Fatalf("expected only op-1101 unseen, got %v err=%v", unseen, err)
	}

	clock = clock.Add(2 * time.Hour)
	unseen, err = store.Unseen("One Piece", ids)
	if err != nil {
		t.Fatalf("Unseen after expiry: %v", err)
	}
	if !slices.Equal(unseen, ids) {
		t.Fatalf("expected marks to expire, got %v", unseen)
	}
}

func TestBoltStoreScopesEntriesPerTitle(t *testing.T) {
	store := openTestStore(t, Options{})

	if err := store.MarkSeen("Kingdom", []string{"shared-guid"}); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	unseen, err := store.Unseen("Vagabond", []string{"shared-guid"})
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	if !slices.Equal(unseen, []string{"shared-guid"}) {
		t.Fatalf("mark for one title leaked to another: %v", unseen)
	}
}

func TestBoltStoreCleanupDropsExpiredEntriesAndEmptyTitles(t *testing.T) {
	store := openTestStore(t, Options{EntryTTL: time.Minute, CleanupInterval: time.Minute})
	clock := time.Now()
	store.now = func() time.Time { return clock }

	if err := store.MarkSeen("Kingdom", []string{"a", "b"}); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if err := store.MarkSeen("Berserk", []string{"c"}); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	clock = clock.Add(5 * time.Minute)
	if err := store.MarkSeen("Berserk", []string{"d"}); err != nil {
		t.Fatalf("MarkSeen after expiry: %v", err)
	}

	titles, entries, err := store.stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if titles != 1 || entries != 1 {
		t.Fatalf("expected only Berserk/d to survive the sweep, got %d titles %d entries", titles, entries)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.db")
	first, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := first.MarkSeen("One Piece", []string{"https://example.test/feed/42"}); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	unseen, err := second.Unseen("One Piece", []string{"https://example.test/feed/42"})
	if err != nil || len(unseen) != 0 {
		t.Fatalf("expected entry to survive reopen, unseen=%v err=%v", unseen, err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkSeen("x", []string{"a"}); err != nil {
		t.Fatalf("noop store MarkSeen: %v", err)
	}
	if unseen, _ := store.Unseen("x", []string{"a"}); len(unseen) != 1 {
		t.Fatalf("noop store must never remember entries")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unknown store type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
