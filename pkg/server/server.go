package server

import (
	"sync"
	"time"

	"github.com/mikekulinski/coordination/pkg/logging"
	"github.com/mikekulinski/coordination/pkg/persistence"
	"github.com/mikekulinski/coordination/pkg/session"
	"github.com/mikekulinski/coordination/pkg/znode"
	"github.com/sirupsen/logrus"
)

const DefaultDisruptDelay = 100 * time.Millisecond

// Server hands out sessions on a single shared tree and owns the lifecycle of both.
type Server struct {
	db *znode.DB

	autoReset    bool
	disruptDelay time.Duration
	journal      *persistence.LogManager
	log          *logrus.Entry

	mu sync.Mutex
	// sessions is a map of session ID to session for every session that hasn't
	// been stopped yet.
	sessions map[string]*session.Session
}

type Option func(*Server)

// WithAutoReset resets the tree every time the last live session stops.
func WithAutoReset(autoReset bool) Option {
	return func(s *Server) {
		s.autoReset = autoReset
	}
}

// WithDisruptDelay sets how long a disrupted session waits before notifying watchers.
func WithDisruptDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.disruptDelay = delay
	}
}

// WithJournal records every mutation of the tree in the given log.
func WithJournal(journal *persistence.LogManager) Option {
	return func(s *Server) {
		s.journal = journal
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Server) {
		s.log = log
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		disruptDelay: DefaultDisruptDelay,
		log:          logging.NewLogger("server"),
		sessions:     map[string]*session.Session{},
	}
	for _, opt := range opts {
		opt(s)
	}

	dbOpts := []znode.Option{znode.WithLogger(s.log)}
	if s.journal != nil {
		dbOpts = append(dbOpts, znode.WithJournal(s.journal))
	}
	s.db = znode.NewDB(dbOpts...)
	return s
}

// DB returns the tree shared by every session of the server.
func (s *Server) DB() *znode.DB {
	return s.db
}

// CreateSession starts a new session on the shared tree.
func (s *Server) CreateSession() *session.Session {
	sess := session.NewSession(s.db, s, s.disruptDelay)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
	s.log.WithField("session", sess.ID()).Debug("session created")
	return sess
}

// Deregister forgets a stopped session. If it was the last one and auto reset is
// enabled, the tree is reset before any new session can be created.
func (s *Server) Deregister(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[sess.ID()]
	delete(s.sessions, sess.ID())
	if ok && len(s.sessions) == 0 && s.autoReset {
		s.log.Debug("last session stopped, resetting the tree")
		s.db.Reset()
	}
}

// NumSessions returns the number of sessions that haven't been stopped.
func (s *Server) NumSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reset drops every node of the tree. It is only meant to be called once every session
// has stopped; resetting under live sessions is logged but still done.
func (s *Server) Reset() {
	if n := s.NumSessions(); n > 0 {
		s.log.WithField("sessions", n).Warn("resetting the tree while sessions are still live")
	}
	s.db.Reset()
}

// CompleteReset stops every live session without notifying any watcher, then resets the
// tree.
func (s *Server) CompleteReset() {
	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	for _, sess := range live {
		sess.StopQuietly()
	}
	s.Reset()
}

// IsReset reports whether there are no live sessions and the tree only holds the root.
func (s *Server) IsReset() bool {
	return s.NumSessions() == 0 && s.db.Len() == 1
}
