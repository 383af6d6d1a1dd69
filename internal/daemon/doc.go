// Package daemon coordinates the long-running segskip process.
//
// It wires configuration, the segment cache, the SponsorBlock source, and the
// session manager into a single lifecycle with flock-based locking to prevent
// multiple instances. One session is attached to the configured mpv socket at
// startup; the HTTP API exposes it (and any others) to companions and the CLI.
//
// Keep orchestration logic here: segment math, ad detection, and player IPC
// live in their own packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
