package segcache_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"segskip/internal/segcache"
	"segskip/internal/segments"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openStore(t *testing.T, ttl time.Duration) (*segcache.Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
	store, err := segcache.Open(filepath.Join(t.TempDir(), "state", "segments.db"), segcache.Options{TTL: ttl, Now: c.Now})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, c
}

func sample() []segments.CategorizedInterval {
	return []segments.CategorizedInterval{
		{Interval: segments.Interval{Start: 0, End: 5}, Category: segments.CategorySponsor},
		{Interval: segments.Interval{Start: 4, End: 6}, Category: segments.CategoryIntro},
	}
}

func TestPutThenGetRoundTripsSegments(t *testing.T) {
	store, _ := openStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, "vid1", []string{"sponsor", "intro"}, sample()); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	entry, err := store.Get(ctx, "vid1", []string{"Intro", "sponsor"})
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry.Categories != "intro,sponsor" {
		t.Fatalf("unexpected signature: %q", entry.Categories)
	}
	if len(entry.Segments) != 2 || entry.Segments[1].Category != segments.CategoryIntro {
		t.Fatalf("unexpected segments: %+v", entry.Segments)
	}
	result := entry.Result()
	if len(result.Skip) != 1 || result.Skip[0] != (segments.Interval{Start: 0, End: 6}) {
		t.Fatalf("unexpected skip set: %v", result.Skip)
	}

	if _, err := store.Get(ctx, "vid1", []string{"sponsor"}); !errors.Is(err, segcache.ErrNotFound) {
		t.Fatalf("different categories should miss, got %v", err)
	}
}

func TestGetHonorsTTL(t *testing.T) {
	store, c := openStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "vid1", nil, nil); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	entry, err := store.Get(ctx, "vid1", nil)
	if err != nil {
		t.Fatalf("expected fresh empty entry, got %v", err)
	}
	if len(entry.Segments) != 0 {
		t.Fatalf("expected cached empty result, got %+v", entry.Segments)
	}

	c.Advance(2 * time.Minute)
	if _, err := store.Get(ctx, "vid1", nil); !errors.Is(err, segcache.ErrNotFound) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	store, c := openStore(t, 0)
	ctx := context.Background()

	if err := store.Put(ctx, "vid1", []string{"sponsor"}, sample()); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	c.Advance(time.Second)
	if err := store.Put(ctx, "vid1", []string{"sponsor"}, sample()[:1]); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Segments) != 1 {
		t.Fatalf("expected single replaced entry, got %+v", entries)
	}
	if !entries[0].FetchedAt.Equal(c.Now()) {
		t.Fatalf("expected fetched_at refreshed, got %v", entries[0].FetchedAt)
	}
}

func TestListDeleteClearPrune(t *testing.T) {
	store, c := openStore(t, 0)
	ctx := context.Background()

	for _, id := range []string{"old", "mid", "new"} {
		if err := store.Put(ctx, id, []string{"sponsor"}, sample()); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
		c.Advance(500 * time.Millisecond)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 3 || entries[0].VideoID != "new" || entries[2].VideoID != "old" {
		t.Fatalf("expected newest first, got %+v", entries)
	}

	pruned, err := store.Prune(ctx, 1200*time.Millisecond)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", pruned)
	}

	deleted, err := store.Delete(ctx, "mid")
	if err != nil || deleted != 1 {
		t.Fatalf("Delete: deleted=%d err=%v", deleted, err)
	}

	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear: cleared=%d err=%v", cleared, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.db")
	for i := 0; i < 2; i++ {
		store, err := segcache.Open(path, segcache.Options{})
		if err != nil {
			t.Fatalf("Open #%d returned error: %v", i, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
	}
	if _, err := segcache.Open("", segcache.Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestPutRequiresVideoID(t *testing.T) {
	store, _ := openStore(t, 0)
	if err := store.Put(context.Background(), " ", nil, nil); err == nil {
		t.Fatal("expected error for blank video id")
	}
}
