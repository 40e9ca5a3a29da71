package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, now *time.Time) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := OpenStore(path, time.Hour, nil, WithStoreClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSetGet(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	ctx := context.Background()

	entry, err := store.Get(ctx, "url", "en", "json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry != nil {
		t.Fatal("entry on empty store")
	}

	if err := store.Set(ctx, "url", "dQw4w9WgXcQ", "en", "json", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	entry, err = store.Get(ctx, "url", "en", "json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil || string(entry.Payload) != `{"x":1}` || entry.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("Get() = %+v", entry)
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	ctx := context.Background()

	if err := store.Set(ctx, "url", "id", "en", "json", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "url", "id", "en", "json", []byte("new")); err != nil {
		t.Fatal(err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after upsert", count)
	}
	entry, err := store.Get(ctx, "url", "en", "json")
	if err != nil || entry == nil {
		t.Fatalf("Get() = %+v, %v", entry, err)
	}
	if string(entry.Payload) != "new" {
		t.Errorf("Payload = %q, want replaced", entry.Payload)
	}
}

func TestStoreExpiry(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	ctx := context.Background()

	if err := store.Set(ctx, "url", "id", "en", "json", []byte("v")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour + time.Second)
	entry, err := store.Get(ctx, "url", "en", "json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry != nil {
		t.Fatal("expired entry served")
	}

	// The expired row was deleted by the read.
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Count() = %d after expired read, want 0", count)
	}
}

func TestStoreCleanupExpired(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	ctx := context.Background()

	if err := store.Set(ctx, "old", "id1", "en", "json", []byte("v")); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Minute)
	if err := store.Set(ctx, "fresh", "id2", "en", "json", []byte("v")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(45 * time.Minute) // old expired, fresh still live
	deleted, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", deleted)
	}
	entry, err := store.Get(ctx, "fresh", "en", "json")
	if err != nil || entry == nil {
		t.Errorf("fresh entry lost: %+v, %v", entry, err)
	}
}

func TestStoreClear(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	ctx := context.Background()

	for _, url := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, url, "id", "en", "json", []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	deleted, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("Clear() = %d, want 3", deleted)
	}
}

func TestStoreCheckHealth(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	if err := store.CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth() error = %v", err)
	}
}

func TestStoreSeparateFormats(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	store := openTestStore(t, &now)
	ctx := context.Background()

	if err := store.Set(ctx, "url", "id", "en", "json", []byte("json-data")); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "url", "id", "en", "vtt", []byte("vtt-data")); err != nil {
		t.Fatal(err)
	}

	entry, err := store.Get(ctx, "url", "en", "vtt")
	if err != nil || entry == nil {
		t.Fatalf("Get(vtt) = %+v, %v", entry, err)
	}
	if string(entry.Payload) != "vtt-data" {
		t.Errorf("Payload = %q, want vtt-data", entry.Payload)
	}
}
