// internal/application/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrManagerClosed = errors.New("session: manager closed")

// Factory builds the adapters of one shopper session.
type Factory func(ctx context.Context, id string) (Deps, error)

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// Manager keeps one Session per browser session id.
type Manager struct {
	factory Factory
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

func NewManager(factory Factory, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		factory:  factory,
		log:      log,
		now:      time.Now,
		sessions: map[string]*entry{},
	}
}

// NewID returns a fresh browser session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

// Get returns the session for id, creating and starting it on first use.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.sess, nil
	}
	m.mu.Unlock()

	deps, err := m.factory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: build %s: %w", id, err)
	}
	s, err := New(id, deps, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		// lost the race to a concurrent request for the same id
		e.lastSeen = m.now()
		m.mu.Unlock()
		s.Close()
		return e.sess, nil
	}
	if m.closed {
		m.mu.Unlock()
		s.Close()
		return nil, ErrManagerClosed
	}
	m.sessions[id] = &entry{sess: s, lastSeen: m.now()}
	m.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		m.log.Warn("session start failed", zap.String("session", id), zap.Error(err))
	}
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many
// were evicted. Their local slots stay in the store, so a returning browser
// restores its cart.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.log.Info("idle sessions evicted", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.Sweep(maxIdle)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes every session and rejects further Gets.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		all = append(all, e.sess)
	}
	m.sessions = map[string]*entry{}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
