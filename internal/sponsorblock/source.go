package sponsorblock

import (
	"context"
	"errors"
	"log/slog"

	"segskip/internal/logging"
	"segskip/internal/segcache"
	"segskip/internal/segments"
)

// Fetcher retrieves raw segments for a video.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]segments.CategorizedInterval, error)
	Categories() []string
}

// Cache is the subset of segcache.Store used by Source.
type Cache interface {
	Get(ctx context.Context, videoID string, categories []string) (segcache.Entry, error)
	Put(ctx context.Context, videoID string, categories []string, segs []segments.CategorizedInterval) error
}

// Source resolves a video ID into skip and display sets. It never returns an error.
type Source struct {
	fetcher Fetcher
	cache   Cache
	logger  *slog.Logger
}

// NewSource wires a fetcher with an optional cache.
func NewSource(fetcher Fetcher, cache Cache, logger *slog.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "sponsorblock"),
	}
}

// Segments returns the skip and display sets for videoID. Failures produce an
// empty result and are logged.
func (s *Source) Segments(ctx context.Context, videoID string) segments.Result {
	if s == nil || s.fetcher == nil || videoID == "" {
		return segments.Result{Skip: segments.SkipSet{}, Display: segments.DisplaySet{}}
	}
	ctx = logging.WithVideoID(ctx, videoID)
	logger := logging.WithContext(ctx, s.logger)
	categories := s.fetcher.Categories()

	if s.cache != nil {
		entry, err := s.cache.Get(ctx, videoID, categories)
		switch {
		case err == nil:
			logger.Debug("segments served from cache", logging.Int("count", len(entry.Segments)))
			return entry.Result()
		case !errors.Is(err, segcache.ErrNotFound):
			logging.WarnWithContext(logger, "segment cache read failed", "segment_cache_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete segments.db if it keeps failing"),
				logging.String(logging.FieldImpact, "segments fetched from network"),
			)
		}
	}

	raw, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		logging.WarnWithContext(logger, "segment fetch failed", "segment_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check sponsorblock.api_url and network access"),
			logging.String(logging.FieldImpact, "no segments will be skipped for this video"),
		)
		return segments.Result{Skip: segments.SkipSet{}, Display: segments.DisplaySet{}}
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, videoID, categories, raw); err != nil {
			logging.WarnWithContext(logger, "segment cache write failed", "segment_cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next play will refetch"),
			)
		}
	}

	result := segments.Build(raw)
	logger.Info("segments loaded",
		logging.String(logging.FieldEventType, "segments_loaded"),
		logging.Int("records", len(raw)),
		logging.Int("skip_intervals", len(result.Skip)),
		logging.Float64("skip_seconds", result.Skip.Total()),
	)
	return result
}
