package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store holds live sessions keyed by ID and evicts those idle for longer than TTL.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	opts     Options
	logger   *zap.Logger
}

// NewStore returns an empty store. A ttl <= 0 disables expiry.
func NewStore(ttl time.Duration, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Create starts a new session and stores it.
func (s *Store) Create() *Session {
	sess := NewSession(s.opts)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session", sess.ID))
	return sess
}

// Get returns the session with the given ID and marks it as seen.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.opts.Now())
	return sess, nil
}

// Delete removes a session. Unknown IDs are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("sessions evicted", zap.Int("count", evicted), zap.Int("remaining", len(s.sessions)))
	}
	return evicted
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(s.opts.Now())
		}
	}
}
