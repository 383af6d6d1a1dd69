// Package mpv drives a running mpv player over its JSON IPC socket
// (--input-ipc-server).
//
// A Client multiplexes request/response commands, matched by request_id,
// with the asynchronous event stream on one connection. It implements the
// playback sink used by the ad state machine and reports position, duration,
// source, and end-of-file events to the session loop.
package mpv
