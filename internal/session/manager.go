package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"segskip/internal/logging"
)

// Manager owns the live sessions.
type Manager struct {
	base   Options
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager whose sessions start from base.
func NewManager(base Options) *Manager {
	return &Manager{
		base:     base,
		logger:   logging.NewComponentLogger(base.Logger, "sessions"),
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with a fresh ID. connect overrides the base
// connector; pass nil to keep it.
func (m *Manager) Create(ctx context.Context, connect Connector) (*Session, error) {
	opts := m.base
	opts.ID = uuid.NewString()
	if connect != nil {
		opts.Connect = connect
	}

	sess := New(opts)
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	m.logger.Info("session created", logging.String(logging.FieldSessionID, sess.ID()))
	return sess, nil
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].created.Equal(out[j].created) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].created.Before(out[j].created)
	})
	return out
}

// Remove stops and forgets a session.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		sess.Stop()
	}
	return ok
}

// StopAll stops every session and empties the manager.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Stop()
		}(sess)
	}
	wg.Wait()
}
