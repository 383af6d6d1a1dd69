package session

import (
	"context"
	"sync"
	"time"

	"segskip/internal/adstate"
)

// EvidenceBoard holds the latest ad evidence posted by a companion and acts as
// the skip control: a skip requested by the machine is queued and handed back
// to the companion on its next post.
type EvidenceBoard struct {
	mu          sync.Mutex
	latest      adstate.Evidence
	updatedAt   time.Time
	pendingSkip bool
	skipCount   int
	onPost      func()
}

// NewEvidenceBoard returns a board that calls onPost after every post.
func NewEvidenceBoard(onPost func()) *EvidenceBoard {
	return &EvidenceBoard{onPost: onPost}
}

// Post replaces the latest evidence and returns whether a skip was queued
// since the previous post.
func (b *EvidenceBoard) Post(e adstate.Evidence, now time.Time) bool {
	b.mu.Lock()
	b.latest = e
	b.updatedAt = now
	skip := b.pendingSkip
	b.pendingSkip = false
	notify := b.onPost
	b.mu.Unlock()

	if notify != nil {
		notify()
	}
	return skip
}

// Latest returns the most recent evidence and when it was posted.
func (b *EvidenceBoard) Latest() (adstate.Evidence, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.updatedAt
}

// Clear forgets posted evidence and any queued skip.
func (b *EvidenceBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = adstate.Evidence{}
	b.updatedAt = time.Time{}
	b.pendingSkip = false
}

// SkipVisible reports whether the last post saw a skip button.
func (b *EvidenceBoard) SkipVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest.SkipVisible
}

// Skip queues a skip request for the companion.
func (b *EvidenceBoard) Skip(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingSkip = true
	b.skipCount++
	return nil
}

// SkipCount returns how many skips were requested.
func (b *EvidenceBoard) SkipCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.skipCount
}
