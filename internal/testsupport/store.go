package testsupport

import (
	"context"
	"testing"

	"segskip/internal/config"
	"segskip/internal/segcache"
	"segskip/internal/segments"
)

// MustOpenCache opens the segment cache for cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *segcache.Store {
	t.Helper()

	store, err := segcache.Open(cfg.CachePath(), segcache.Options{TTL: cfg.CacheTTL()})
	if err != nil {
		t.Fatalf("segcache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutSegments seeds the cache with segments for videoID under the configured categories.
func PutSegments(t testing.TB, cfg *config.Config, store *segcache.Store, videoID string, segs ...segments.CategorizedInterval) {
	t.Helper()

	if err := store.Put(context.Background(), videoID, cfg.SponsorBlock.Categories, segs); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
}
