package session

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mikekulinski/coordination/pkg/logging"
	"github.com/mikekulinski/coordination/pkg/znode"
	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/mikekulinski/coordination/pkg/zxid"
	"github.com/sirupsen/logrus"
)

var _ zookeeper.Session = (*Session)(nil)

// Registry is told when a session stops so it can forget about it.
type Registry interface {
	Deregister(s *Session)
}

// Session is a client's handle on an in process tree. It remembers the ephemeral nodes it
// created so they can be removed once it stops.
type Session struct {
	id       string
	db       *znode.DB
	registry Registry
	// disruptDelay is how long Disrupt waits before notifying the watchers.
	disruptDelay time.Duration
	log          *logrus.Entry

	stopping atomic.Bool

	mu sync.Mutex
	// Ephemeral nodes that have been created by this session, in creation order.
	localEphemeralDirs []ephemeralDir
}

// ephemeralDir identifies an ephemeral node by its path and the zxid it was created
// with, so a node later recreated at the same path by someone else is never mistaken
// for ours.
type ephemeralDir struct {
	path  string
	czxid zxid.ZXID
}

func NewSession(db *znode.DB, registry Registry, disruptDelay time.Duration) *Session {
	id := uuid.New().String()
	return &Session{
		id:           id,
		db:           db,
		registry:     registry,
		disruptDelay: disruptDelay,
		log:          logging.NewLogger("session").WithField("session", id),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Stopped reports whether Stop has been called.
func (s *Session) Stopped() bool {
	return s.stopping.Load()
}

func (s *Session) Mkdir(path string, data []byte, mode zookeeper.DirMode) (string, error) {
	if s.Stopped() {
		return "", zookeeper.NewPathError("mkdir", path, zookeeper.ErrSessionStopped)
	}
	actual, czxid, err := s.db.Create(path, data, mode)
	if err != nil {
		return "", err
	}
	if actual != "" && mode.IsEphemeral() {
		s.mu.Lock()
		if s.Stopped() {
			// Stop already collected the ephemeral nodes, so this one is on us.
			s.mu.Unlock()
			_ = s.db.RmdirIf(actual, czxid)
			return "", zookeeper.NewPathError("mkdir", path, zookeeper.ErrSessionStopped)
		}
		s.localEphemeralDirs = append(s.localEphemeralDirs, ephemeralDir{path: actual, czxid: czxid})
		s.mu.Unlock()
	}
	return actual, nil
}

func (s *Session) Rmdir(path string) error {
	if s.Stopped() {
		return zookeeper.NewPathError("rmdir", path, zookeeper.ErrSessionStopped)
	}
	if err := s.db.Rmdir(path); err != nil {
		return err
	}
	s.forget(path)
	return nil
}

func (s *Session) Exists(path string, watcher zookeeper.Watcher) (bool, error) {
	if s.Stopped() {
		return false, zookeeper.NewPathError("exists", path, zookeeper.ErrSessionStopped)
	}
	return s.db.Exists(path, s.proxy(watcher)), nil
}

func (s *Session) GetData(path string, watcher zookeeper.Watcher) ([]byte, error) {
	if s.Stopped() {
		return nil, zookeeper.NewPathError("getData", path, zookeeper.ErrSessionStopped)
	}
	return s.db.GetData(path, s.proxy(watcher))
}

func (s *Session) SetData(path string, data []byte) error {
	if s.Stopped() {
		return zookeeper.NewPathError("setData", path, zookeeper.ErrSessionStopped)
	}
	return s.db.SetData(path, data)
}

func (s *Session) GetSubdirs(path string, watcher zookeeper.Watcher) ([]string, error) {
	if s.Stopped() {
		return nil, zookeeper.NewPathError("getSubdirs", path, zookeeper.ErrSessionStopped)
	}
	return s.db.GetSubdirs(path, s.proxy(watcher))
}

// EphemeralDirs returns the ephemeral nodes this session still owns, in creation order.
func (s *Session) EphemeralDirs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.localEphemeralDirs))
	for _, dir := range s.localEphemeralDirs {
		paths = append(paths, dir.path)
	}
	return paths
}

// proxy wraps the watcher so it is never called once the session has stopped, even if
// the notification was already on its way.
func (s *Session) proxy(watcher zookeeper.Watcher) zookeeper.Watcher {
	if watcher == nil {
		return nil
	}
	return func() {
		if s.Stopped() {
			return
		}
		watcher()
	}
}

// Stop ends the session and removes every ephemeral node it created, newest first. A
// node that was removed and created again by another session is left alone. Only the
// first call has any effect.
func (s *Session) Stop() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}

	dirs := s.takeEphemeralDirs()
	for i := len(dirs) - 1; i >= 0; i-- {
		err := s.db.RmdirIf(dirs[i].path, dirs[i].czxid)
		// Someone else may have removed the node already.
		if err != nil && !errors.Is(err, zookeeper.ErrNoNode) {
			s.log.WithField("path", dirs[i].path).WithError(err).Warn("failed to remove ephemeral node")
		}
	}
	s.log.WithField("ephemeral_nodes", len(dirs)).Debug("session stopped")

	if s.registry != nil {
		s.registry.Deregister(s)
	}
}

// StopQuietly ends the session without removing its ephemeral nodes or notifying anyone.
// It is meant for tearing down every session right before the whole tree is reset.
func (s *Session) StopQuietly() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.takeEphemeralDirs()
	if s.registry != nil {
		s.registry.Deregister(s)
	}
}

// Disrupt simulates losing the connection to the ensemble: the ephemeral nodes of the
// session disappear but the session itself keeps working. The watchers of the affected
// nodes are notified after the configured delay on a separate goroutine.
func (s *Session) Disrupt() {
	dirs := s.takeEphemeralDirs()

	var pending []*znode.Notification
	for i := len(dirs) - 1; i >= 0; i-- {
		n, err := s.db.DetachIf(dirs[i].path, dirs[i].czxid)
		if err != nil {
			if !errors.Is(err, zookeeper.ErrNoNode) {
				s.log.WithField("path", dirs[i].path).WithError(err).Warn("failed to drop ephemeral node")
			}
			continue
		}
		if !n.Empty() {
			pending = append(pending, n)
		}
	}
	s.log.WithField("notifications", len(pending)).Info("session disrupted")
	if len(pending) == 0 {
		return
	}

	go func() {
		time.Sleep(s.disruptDelay)
		for _, n := range pending {
			n.Fire()
		}
	}()
}

func (s *Session) takeEphemeralDirs() []ephemeralDir {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirs := s.localEphemeralDirs
	s.localEphemeralDirs = nil
	return dirs
}

func (s *Session) forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localEphemeralDirs = slices.DeleteFunc(s.localEphemeralDirs, func(dir ephemeralDir) bool {
		return dir.path == path
	})
}
