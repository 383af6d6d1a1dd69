// Command segskip runs the segment-skip and ad-speedup daemon and provides
// CLI utilities for inspecting segments, the cache, and a running daemon.
package main
