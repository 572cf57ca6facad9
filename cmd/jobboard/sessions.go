package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matst80/jobboard/pkg/auth"
	"github.com/matst80/jobboard/pkg/board"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "jobboard_active_sessions",
	Help: "The number of board sessions held in memory",
})

type session struct {
	board    *board.Board
	identity atomic.Pointer[auth.Identity]
	lastSeen atomic.Int64
}

func (s *session) Identity() *auth.Identity {
	return s.identity.Load()
}

// boardFactory builds the board of a new session. The identity func reads the session's
// latest signed-in user.
type boardFactory func(sessionId string, identity func() *auth.Identity) *board.Board

type sessionStore struct {
	clock   clockwork.Clock
	idle    time.Duration
	factory boardFactory

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(factory boardFactory, idle time.Duration, clock clockwork.Clock) *sessionStore {
	return &sessionStore{
		clock:    clock,
		idle:     idle,
		factory:  factory,
		sessions: make(map[string]*session),
	}
}

// get returns the session, creating and mounting its board on first use.
func (st *sessionStore) get(sessionId string) *session {
	st.mu.Lock()
	s, ok := st.sessions[sessionId]
	if !ok {
		s = &session{}
		s.board = st.factory(sessionId, s.Identity)
		st.sessions[sessionId] = s
		activeSessions.Inc()
	}
	s.lastSeen.Store(st.clock.Now().UnixNano())
	st.mu.Unlock()

	if !ok {
		s.board.Mount()
	}
	return s
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// reap closes every session idle for longer than the idle timeout.
func (st *sessionStore) reap() int {
	cutoff := st.clock.Now().Add(-st.idle).UnixNano()
	var expired []*session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.lastSeen.Load() < cutoff {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.board.Close()
		activeSessions.Dec()
	}
	return len(expired)
}

// run reaps idle sessions until ctx is done.
func (st *sessionStore) run(ctx context.Context, every time.Duration) {
	ticker := st.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			st.reap()
		}
	}
}

func (st *sessionStore) Close(context.Context) error {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()
	for _, s := range sessions {
		s.board.Close()
		activeSessions.Dec()
	}
	return nil
}
