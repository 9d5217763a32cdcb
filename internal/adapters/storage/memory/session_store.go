package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

// maxCleanupInterval caps how often idle sessions are looked for.
const maxCleanupInterval = 30 * time.Second

// LiveSession is anything the store can hold and end.
type LiveSession interface {
	ID() domain.SessionID
	Close() error
	// LastActivity is when the session was last in use. A session still in
	// use right now reports the current time.
	LastActivity() time.Time
}

// SessionStore keeps the live sessions of this process. Nothing survives a
// restart. Sessions idle for longer than the idle timeout are closed.
type SessionStore[S LiveSession] struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]S

	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
	cleanupDone chan struct{}
}

// NewSessionStore returns an empty store. A positive idleTimeout starts the
// cleanup routine, which runs until CloseAll.
func NewSessionStore[S LiveSession](idleTimeout time.Duration) *SessionStore[S] {
	s := &SessionStore[S]{
		sessions:    make(map[domain.SessionID]S),
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	if idleTimeout > 0 {
		go s.startCleanupRoutine()
	} else {
		close(s.cleanupDone)
	}
	return s
}

func (s *SessionStore[S]) CreateSession(session S) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID()]; exists {
		return fmt.Errorf("session %s already exists", session.ID())
	}

	s.sessions[session.ID()] = session
	observability.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

func (s *SessionStore[S]) GetSession(id domain.SessionID) (S, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		var zero S
		return zero, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}

	return sess, nil
}

// DeleteSession removes the session and closes it.
func (s *SessionStore[S]) DeleteSession(id domain.SessionID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	observability.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return sess.Close()
}

func (s *SessionStore[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll stops the cleanup routine and ends every session, for shutdown.
func (s *SessionStore[S]) CloseAll() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.cleanupDone

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[domain.SessionID]S)
	observability.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.Close()
	}
}

func (s *SessionStore[S]) startCleanupRoutine() {
	defer close(s.cleanupDone)

	interval := max(min(s.idleTimeout/2, maxCleanupInterval), time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.cleanupExpiredSessions(now)
		}
	}
}

// cleanupExpiredSessions closes sessions inactive for longer than the idle
// timeout.
func (s *SessionStore[S]) cleanupExpiredSessions(now time.Time) {
	var expired []S

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity()) > s.idleTimeout {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	observability.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range expired {
		observability.ExpiredSessions.Inc()
		log := observability.Logger().With("session_id", sess.ID())
		log.Info("closing idle session", "idle_timeout", s.idleTimeout)
		if err := sess.Close(); err != nil {
			log.Warn("closing idle session failed", "error", err)
		}
	}
}
