package segcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"segskip/internal/segments"
)

// timestampLayout is fixed width so stored values sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned by Get when no fresh entry exists.
var ErrNotFound = errors.New("segment cache entry not found")

// Entry is one cached fetch result.
type Entry struct {
	VideoID    string                         `json:"video_id"`
	Categories string                         `json:"categories"`
	Segments   []segments.CategorizedInterval `json:"segments"`
	FetchedAt  time.Time                      `json:"fetched_at"`
}

// Result derives the skip and display sets from the cached raw segments.
func (e Entry) Result() segments.Result {
	return segments.Build(e.Segments)
}

// Options configures a Store.
type Options struct {
	// TTL bounds how long an entry is served. Zero keeps entries until pruned.
	TTL time.Duration
	Now func() time.Time
}

// Store manages the segment cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Open initializes or connects to the cache database and applies migrations.
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("segment cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := &Store{db: db, path: path, ttl: opts.TTL, now: now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CategorySignature normalizes a category filter into a stable cache key.
func CategorySignature(categories []string) string {
	normalized := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		c := strings.ToLower(strings.TrimSpace(category))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		normalized = append(normalized, c)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",")
}

// Get returns the cached entry for a video and category filter, or ErrNotFound
// when the entry is absent or older than the TTL.
func (s *Store) Get(ctx context.Context, videoID string, categories []string) (Entry, error) {
	signature := CategorySignature(categories)
	row := s.db.QueryRowContext(ctx,
		`SELECT video_id, categories, segments_json, fetched_at FROM segment_cache WHERE video_id = ? AND categories = ?`,
		videoID, signature,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get cache entry: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(entry.FetchedAt) > s.ttl {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Put stores the raw segments for a video and category filter, replacing any previous entry.
func (s *Store) Put(ctx context.Context, videoID string, categories []string, segs []segments.CategorizedInterval) error {
	if strings.TrimSpace(videoID) == "" {
		return errors.New("video id is required")
	}
	if segs == nil {
		segs = []segments.CategorizedInterval{}
	}
	payload, err := json.Marshal(segs)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO segment_cache (video_id, categories, segments_json, fetched_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (video_id, categories) DO UPDATE SET
             segments_json = excluded.segments_json,
             fetched_at = excluded.fetched_at`,
		videoID,
		CategorySignature(categories),
		string(payload),
		s.now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// List returns every entry, newest first, regardless of TTL.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, categories, segments_json, fetched_at FROM segment_cache ORDER BY fetched_at DESC, video_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes all entries for a video.
func (s *Store) Delete(ctx context.Context, videoID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM segment_cache WHERE video_id = ?`, videoID)
	if err != nil {
		return 0, fmt.Errorf("delete cache entries: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM segment_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes entries fetched more than olderThan ago.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UTC().Format(timestampLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM segment_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry     Entry
		payload   string
		fetchedAt string
	)
	if err := row.Scan(&entry.VideoID, &entry.Categories, &payload, &fetchedAt); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(payload), &entry.Segments); err != nil {
		return Entry{}, fmt.Errorf("decode cached segments for %s: %w", entry.VideoID, err)
	}
	ts, err := time.Parse(timestampLayout, fetchedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse fetched_at for %s: %w", entry.VideoID, err)
	}
	entry.FetchedAt = ts
	return entry, nil
}
