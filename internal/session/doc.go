// Package session owns the per-player state: the active skip and display
// sets, the ad state machine, and the connection to the player.
//
// Each Session runs one event loop goroutine. Player events, detection ticks,
// fetched segments, and external calls are processed there one at a time, so
// the loop state needs no locks. Only the published Status snapshot is shared.
package session
