// Package segcache persists fetched skip segments in SQLite so repeat plays of
// a video do not hit the segment service again until the entry expires.
//
// Entries are keyed by video ID and a normalized category signature, because
// the same video fetched with a different category filter yields different
// segments. Empty results are cached too; a video with no segments is a valid
// answer.
package segcache
