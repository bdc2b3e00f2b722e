package probecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache", "probe.db"), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func writeMedia(t *testing.T, dir, name, body string) (string, os.FileInfo) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat media: %v", err)
	}
	return path, info
}

func TestStoreAndLookup(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	path, info := writeMedia(t, t.TempDir(), "a.mkv", "data")

	if _, ok := cache.Lookup(ctx, path, info); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := cache.Store(ctx, path, info, []byte(`{"tracks":[]}`)); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	payload, ok := cache.Lookup(ctx, path, info)
	if !ok || string(payload) != `{"tracks":[]}` {
		t.Fatalf("unexpected lookup result: %q %v", payload, ok)
	}
	if err := cache.Store(ctx, path, info, []byte(`{"tracks":[1]}`)); err != nil {
		t.Fatalf("Store overwrite returned error: %v", err)
	}
	if n, err := cache.Count(ctx); err != nil || n != 1 {
		t.Fatalf("expected one entry, got %d (%v)", n, err)
	}
}

func TestLookupMissesWhenFileChanges(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	dir := t.TempDir()
	path, info := writeMedia(t, dir, "a.mkv", "data")
	if err := cache.Store(ctx, path, info, []byte(`{}`)); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	_, changed := writeMedia(t, dir, "a.mkv", "longer data")
	if _, ok := cache.Lookup(ctx, path, changed); ok {
		t.Fatal("expected miss after size change")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	touched, _ := os.Stat(path)
	if err := cache.Store(ctx, path, changed, []byte(`{}`)); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if _, ok := cache.Lookup(ctx, path, touched); ok {
		t.Fatal("expected miss after mtime change")
	}
}

func TestPruneRemovesMissingFiles(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	dir := t.TempDir()
	keep, keepInfo := writeMedia(t, dir, "keep.mkv", "k")
	gone, goneInfo := writeMedia(t, dir, "gone.mkv", "g")
	for path, info := range map[string]os.FileInfo{keep: keepInfo, gone: goneInfo} {
		if err := cache.Store(ctx, path, info, []byte(`{}`)); err != nil {
			t.Fatalf("Store returned error: %v", err)
		}
	}
	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove: %v", err)
	}
	removed, err := cache.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	if _, ok := cache.Lookup(ctx, keep, keepInfo); !ok {
		t.Fatal("expected surviving entry")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "probe.db")
	path, info := writeMedia(t, t.TempDir(), "a.mkv", "data")

	first, err := Open(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := first.Store(ctx, path, info, []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	_ = first.Close()

	second, err := Open(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer second.Close()
	if _, ok := second.Lookup(ctx, path, info); !ok {
		t.Fatal("expected entry after reopen")
	}
}

func TestNilCacheIsEmpty(t *testing.T) {
	var cache *Cache
	if _, ok := cache.Lookup(context.Background(), "/x", nil); ok {
		t.Fatal("expected nil cache miss")
	}
	if err := cache.Store(context.Background(), "/x", nil, []byte("x")); err != nil {
		t.Fatalf("expected nil cache store to be a no-op, got %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("expected nil cache close to be a no-op, got %v", err)
	}
}
