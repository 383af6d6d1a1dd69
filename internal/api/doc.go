// Package api serves segskip's HTTP interface and the client the CLI uses to
// talk to it.
//
// Every response is wrapped in an envelope:
//
//	{"status":"ok","data":...}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"..."}}
//
// Companions (a browser extension or userscript watching the player UI) post
// ad evidence to /api/sessions/{id}/evidence and receive the current ad state
// plus any queued skip request in reply.
package api
