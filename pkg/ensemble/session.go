package ensemble

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/mikekulinski/coordination/pkg/logging"
	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/sirupsen/logrus"
)

var _ zookeeper.Session = (*Session)(nil)

// Session is a zookeeper.Session backed by a real ZooKeeper ensemble. Ephemeral nodes
// and sequence numbers are handled by the ensemble itself. Sequence counters are kept
// per parent by the ensemble instead of per requested name.
type Session struct {
	conn *zk.Conn
	acl  []zk.ACL
	log  *logrus.Entry

	stopping atomic.Bool
}

// Connect dials the ensemble and waits up to sessionTimeout for a session to be
// established.
func Connect(hosts []string, sessionTimeout time.Duration) (*Session, error) {
	log := logging.NewLogger("ensemble")
	conn, events, err := zk.Connect(hosts, sessionTimeout, zk.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("error connecting to %v: %w", hosts, err)
	}

	s := &Session{
		conn: conn,
		acl:  zk.WorldACL(zk.PermAll),
		log:  log,
	}
	if err := waitForSession(events, sessionTimeout); err != nil {
		conn.Close()
		return nil, err
	}
	go s.watchSessionEvents(events)
	return s, nil
}

func waitForSession(events <-chan zk.Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: connection closed before a session was established", zookeeper.ErrBackend)
			}
			if ev.Type == zk.EventSession && ev.State == zk.StateHasSession {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("%w: timed out waiting for a session", zookeeper.ErrBackend)
		}
	}
}

// watchSessionEvents runs until the connection is closed. Once the ensemble expires the
// session, its ephemeral nodes are gone, so the session is stopped as well.
func (s *Session) watchSessionEvents(events <-chan zk.Event) {
	for ev := range events {
		if ev.Type != zk.EventSession {
			continue
		}
		if ev.State == zk.StateExpired {
			s.log.Warn("session expired, stopping")
			s.Stop()
			continue
		}
		s.log.WithField("state", ev.State.String()).Debug("got session event")
	}
}

func (s *Session) Stopped() bool {
	return s.stopping.Load()
}

func (s *Session) Mkdir(path string, data []byte, mode zookeeper.DirMode) (string, error) {
	if s.Stopped() {
		return "", zookeeper.NewPathError("mkdir", path, zookeeper.ErrSessionStopped)
	}
	actual, err := s.conn.Create(path, data, createFlags(mode), s.acl)
	if errors.Is(err, zk.ErrNodeExists) && !mode.IsSequential() {
		return "", nil
	}
	if err != nil {
		return "", s.translate("mkdir", path, err)
	}
	return actual, nil
}

func (s *Session) Rmdir(path string) error {
	if s.Stopped() {
		return zookeeper.NewPathError("rmdir", path, zookeeper.ErrSessionStopped)
	}
	return s.translate("rmdir", path, s.conn.Delete(path, -1))
}

func (s *Session) Exists(path string, watcher zookeeper.Watcher) (bool, error) {
	if s.Stopped() {
		return false, zookeeper.NewPathError("exists", path, zookeeper.ErrSessionStopped)
	}
	if watcher == nil {
		ok, _, err := s.conn.Exists(path)
		return ok, s.translate("exists", path, err)
	}
	ok, _, ch, err := s.conn.ExistsW(path)
	if err != nil {
		return false, s.translate("exists", path, err)
	}
	// The ensemble would also report the creation of a missing node, which isn't part of
	// the contract.
	if ok {
		s.bridge(ch, watcher)
	}
	return ok, nil
}

func (s *Session) GetData(path string, watcher zookeeper.Watcher) ([]byte, error) {
	if s.Stopped() {
		return nil, zookeeper.NewPathError("getData", path, zookeeper.ErrSessionStopped)
	}
	if watcher == nil {
		data, _, err := s.conn.Get(path)
		return data, s.translate("getData", path, err)
	}
	data, _, ch, err := s.conn.GetW(path)
	if err != nil {
		return nil, s.translate("getData", path, err)
	}
	s.bridge(ch, watcher)
	return data, nil
}

func (s *Session) SetData(path string, data []byte) error {
	if s.Stopped() {
		return zookeeper.NewPathError("setData", path, zookeeper.ErrSessionStopped)
	}
	_, err := s.conn.Set(path, data, -1)
	return s.translate("setData", path, err)
}

func (s *Session) GetSubdirs(path string, watcher zookeeper.Watcher) ([]string, error) {
	if s.Stopped() {
		return nil, zookeeper.NewPathError("getSubdirs", path, zookeeper.ErrSessionStopped)
	}
	if watcher == nil {
		children, _, err := s.conn.Children(path)
		return children, s.translate("getSubdirs", path, err)
	}
	children, _, ch, err := s.conn.ChildrenW(path)
	if err != nil {
		return nil, s.translate("getSubdirs", path, err)
	}
	s.bridge(ch, watcher)
	return children, nil
}

// Stop closes the connection, which makes the ensemble drop every ephemeral node of the
// session. Only the first call has any effect.
func (s *Session) Stop() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.conn.Close()
	s.log.Debug("session stopped")
}

// bridge calls the watcher once the ensemble fires the watch. Watches invalidated by
// closing the connection are dropped.
func (s *Session) bridge(ch <-chan zk.Event, watcher zookeeper.Watcher) {
	go func() {
		ev, ok := <-ch
		if !ok || ev.Type == zk.EventNotWatching || s.Stopped() {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("path", ev.Path).Errorf("watcher callback panicked: %v", r)
			}
		}()
		watcher()
	}()
}

func createFlags(mode zookeeper.DirMode) int32 {
	var flags int32
	if mode.IsEphemeral() {
		flags |= zk.FlagEphemeral
	}
	if mode.IsSequential() {
		flags |= zk.FlagSequence
	}
	return flags
}

// translate maps the errors of the ensemble onto the errors of the zookeeper package.
func (s *Session) translate(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var kind error
	switch {
	case errors.Is(err, zk.ErrNoNode) && op == "mkdir":
		kind = zookeeper.ErrNoParent
	case errors.Is(err, zk.ErrNoNode):
		kind = zookeeper.ErrNoNode
	case errors.Is(err, zk.ErrNotEmpty):
		kind = zookeeper.ErrNotEmpty
	case errors.Is(err, zk.ErrNoChildrenForEphemerals):
		kind = zookeeper.ErrInvalidParentState
	case errors.Is(err, zk.ErrInvalidPath):
		kind = zookeeper.ErrInvalidPath
	case s.Stopped() && (errors.Is(err, zk.ErrClosing) || errors.Is(err, zk.ErrConnectionClosed)):
		kind = zookeeper.ErrSessionStopped
	default:
		kind = fmt.Errorf("%w: %w", zookeeper.ErrBackend, err)
	}
	return zookeeper.NewPathError(op, path, kind)
}
