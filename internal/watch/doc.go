// Package watch turns periodic polling and change notifications into a single
// throttled stream of ready signals, and provides WaitFor for polling until a
// resource becomes available.
package watch
