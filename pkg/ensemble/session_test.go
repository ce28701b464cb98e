package ensemble

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/mikekulinski/coordination/pkg/logging"
	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFlags(t *testing.T) {
	assert.Equal(t, int32(0), createFlags(zookeeper.Persistent))
	assert.Equal(t, int32(zk.FlagEphemeral), createFlags(zookeeper.Ephemeral))
	assert.Equal(t, int32(zk.FlagSequence), createFlags(zookeeper.PersistentSequential))
	assert.Equal(t, int32(zk.FlagEphemeral|zk.FlagSequence), createFlags(zookeeper.EphemeralSequential))
}

func TestSession_Translate(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		err      error
		stopped  bool
		expected error
	}{
		{
			name:     "missing parent",
			op:       "mkdir",
			err:      zk.ErrNoNode,
			expected: zookeeper.ErrNoParent,
		},
		{
			name:     "missing node",
			op:       "getData",
			err:      zk.ErrNoNode,
			expected: zookeeper.ErrNoNode,
		},
		{
			name:     "not empty",
			op:       "rmdir",
			err:      zk.ErrNotEmpty,
			expected: zookeeper.ErrNotEmpty,
		},
		{
			name:     "ephemeral parent",
			op:       "mkdir",
			err:      zk.ErrNoChildrenForEphemerals,
			expected: zookeeper.ErrInvalidParentState,
		},
		{
			name:     "invalid path",
			op:       "exists",
			err:      zk.ErrInvalidPath,
			expected: zookeeper.ErrInvalidPath,
		},
		{
			name:     "closed after stop",
			op:       "setData",
			err:      zk.ErrClosing,
			stopped:  true,
			expected: zookeeper.ErrSessionStopped,
		},
		{
			name:     "closed while running",
			op:       "setData",
			err:      zk.ErrConnectionClosed,
			expected: zookeeper.ErrBackend,
		},
		{
			name:     "anything else",
			op:       "getSubdirs",
			err:      errors.New("boom"),
			expected: zookeeper.ErrBackend,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := &Session{log: logging.NewLogger("test")}
			s.stopping.Store(test.stopped)

			err := s.translate(test.op, "/zoo", test.err)
			assert.ErrorIs(t, err, test.expected)
			var pathErr *zookeeper.PathError
			require.ErrorAs(t, err, &pathErr)
			assert.Equal(t, test.op, pathErr.Op)
			assert.Equal(t, "/zoo", pathErr.Path)
		})
	}

	s := &Session{log: logging.NewLogger("test")}
	assert.NoError(t, s.translate("mkdir", "/zoo", nil))
	// The original error is kept around for backend failures.
	assert.ErrorIs(t, s.translate("rmdir", "/zoo", zk.ErrAPIError), zk.ErrAPIError)
}

func TestSession_Bridge(t *testing.T) {
	tests := []struct {
		name     string
		event    *zk.Event
		stopped  bool
		expected int32
	}{
		{
			name:     "data changed",
			event:    &zk.Event{Type: zk.EventNodeDataChanged, Path: "/zoo"},
			expected: 1,
		},
		{
			name:     "watch invalidated",
			event:    &zk.Event{Type: zk.EventNotWatching, Path: "/zoo"},
			expected: 0,
		},
		{
			name:     "channel closed",
			expected: 0,
		},
		{
			name:     "session stopped",
			event:    &zk.Event{Type: zk.EventNodeDeleted, Path: "/zoo"},
			stopped:  true,
			expected: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := &Session{log: logging.NewLogger("test")}
			s.stopping.Store(test.stopped)

			ch := make(chan zk.Event, 1)
			var fired int32
			called := make(chan struct{})
			s.bridge(ch, func() {
				atomic.AddInt32(&fired, 1)
				close(called)
			})

			if test.event != nil {
				ch <- *test.event
			}
			close(ch)

			if test.expected > 0 {
				select {
				case <-called:
				case <-time.After(5 * time.Second):
					t.Fatal("watcher was never called")
				}
			} else {
				time.Sleep(20 * time.Millisecond)
			}
			assert.Equal(t, test.expected, atomic.LoadInt32(&fired))
		})
	}
}

func TestSession_StoppedRejectsEverything(t *testing.T) {
	s := &Session{log: logging.NewLogger("test")}
	s.stopping.Store(true)

	_, err := s.Mkdir("/zoo", nil, zookeeper.Persistent)
	assert.ErrorIs(t, err, zookeeper.ErrSessionStopped)
	assert.ErrorIs(t, s.Rmdir("/zoo"), zookeeper.ErrSessionStopped)
	_, err = s.Exists("/zoo", nil)
	assert.ErrorIs(t, err, zookeeper.ErrSessionStopped)
	_, err = s.GetData("/zoo", nil)
	assert.ErrorIs(t, err, zookeeper.ErrSessionStopped)
	assert.ErrorIs(t, s.SetData("/zoo", nil), zookeeper.ErrSessionStopped)
	_, err = s.GetSubdirs("/zoo", nil)
	assert.ErrorIs(t, err, zookeeper.ErrSessionStopped)
	// Already stopped, so this must not touch the connection.
	s.Stop()
}

// TestSession_Ensemble runs against a real ensemble listed in ZK_HOSTS, for example
// ZK_HOSTS=127.0.0.1:2181.
func TestSession_Ensemble(t *testing.T) {
	hosts := os.Getenv("ZK_HOSTS")
	if testing.Short() || hosts == "" {
		t.Skip("ZK_HOSTS is not set")
	}

	s1, err := Connect(strings.Split(hosts, ","), 10*time.Second)
	require.NoError(t, err)
	defer s1.Stop()
	s2, err := Connect(strings.Split(hosts, ","), 10*time.Second)
	require.NoError(t, err)
	defer s2.Stop()

	root := fmt.Sprintf("/coordination_test_%d", time.Now().UnixNano())
	require.NoError(t, zookeeper.RecursiveMkdir(s1, root+"/app", zookeeper.Persistent))
	defer func() {
		_ = s2.Rmdir(root + "/app")
		_ = s2.Rmdir(root)
	}()

	actual, err := s1.Mkdir(root+"/app", []byte("x"), zookeeper.Persistent)
	require.NoError(t, err)
	assert.Empty(t, actual)

	_, err = s1.Mkdir(root+"/missing/child", nil, zookeeper.Persistent)
	assert.ErrorIs(t, err, zookeeper.ErrNoParent)

	_, err = s1.Mkdir(root+"/app/node", []byte("v"), zookeeper.Ephemeral)
	require.NoError(t, err)
	_, err = s1.Mkdir(root+"/app/node/child", nil, zookeeper.Persistent)
	assert.ErrorIs(t, err, zookeeper.ErrInvalidParentState)

	fired := make(chan struct{})
	subdirs, err := s2.GetSubdirs(root+"/app", func() { close(fired) })
	require.NoError(t, err)
	assert.Equal(t, []string{"node"}, subdirs)

	s1.Stop()
	select {
	case <-fired:
	case <-time.After(10 * time.Second):
		t.Fatal("child watcher was never called")
	}
	subdirs, err = s2.GetSubdirs(root+"/app", nil)
	require.NoError(t, err)
	assert.Empty(t, subdirs)
}
