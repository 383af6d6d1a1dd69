// Package preflight provides readiness checks for the filesystem paths and
// external services segskip depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failing check. Failures
//     do not stop the daemon since the player and the segment server may
//     come up later.
//   - The CLI "segskip status" command renders the results as a checklist.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
