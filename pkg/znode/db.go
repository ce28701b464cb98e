package znode

import (
	"bytes"
	"sort"
	"sync"

	"github.com/mikekulinski/coordination/pkg/logging"
	"github.com/mikekulinski/coordination/pkg/persistence"
	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/mikekulinski/coordination/pkg/zxid"
	"github.com/sirupsen/logrus"
)

// DB is the source of truth for all the data stored in the tree. It maps every absolute
// path to its node and serializes every mutation and watch registration behind a single
// lock, so it can be abstracted away from the caller. Watchers are always called after
// the lock has been released.
type DB struct {
	mu    *sync.Mutex
	nodes map[string]*ZNode
	// lastZxid is the id of the last committed mutation.
	lastZxid zxid.ZXID

	journal *persistence.LogManager
	log     *logrus.Entry
}

type Option func(*DB)

// WithJournal records every committed mutation in the given log. The DB starts a new
// epoch after the last transaction already in the log.
func WithJournal(journal *persistence.LogManager) Option {
	return func(d *DB) {
		d.journal = journal
		d.lastZxid = journal.LastZxid.NextEpoch()
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(d *DB) {
		d.log = log
	}
}

func NewDB(opts ...Option) *DB {
	d := &DB{
		mu:    &sync.Mutex{},
		nodes: newRootMap(),
		log:   logging.NewLogger("znode"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newRootMap() map[string]*ZNode {
	return map[string]*ZNode{
		RootPath: NewZNode(RootPath, zookeeper.Persistent, nil),
	}
}

// Mkdir creates a node at path and returns the actual path of the new node. Sequential
// modes append the next counter for the requested name to the path. If a node already
// exists at the resulting path, nothing is created and the returned path is empty.
func (d *DB) Mkdir(path string, data []byte, mode zookeeper.DirMode) (string, error) {
	actual, _, err := d.Create(path, data, mode)
	return actual, err
}

// Create works like Mkdir and also returns the zxid the node was created with, which
// tells this node apart from any later node created at the same path. The zxid is zero
// when nothing was created.
func (d *DB) Create(path string, data []byte, mode zookeeper.DirMode) (string, zxid.ZXID, error) {
	actual, czxid, n, err := d.mkdir(path, data, mode)
	if err != nil {
		return "", 0, err
	}
	n.Fire()
	return actual, czxid, nil
}

func (d *DB) mkdir(path string, data []byte, mode zookeeper.DirMode) (string, zxid.ZXID, *Notification, error) {
	candidate := path
	if path == RootPath && !mode.IsSequential() {
		// The root always exists.
		return "", 0, nil, nil
	}
	if mode.IsSequential() {
		candidate = sequentialName(path, 0)
	}
	if err := validatePath(candidate); err != nil {
		return "", 0, nil, zookeeper.NewPathError("mkdir", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !mode.IsSequential() {
		if _, ok := d.nodes[path]; ok {
			return "", 0, nil, nil
		}
	}

	parentPath, name := splitPath(path)
	parent, ok := d.nodes[parentPath]
	if !ok {
		return "", 0, nil, zookeeper.NewPathError("mkdir", path, zookeeper.ErrNoParent)
	}
	if parent.Mode.IsEphemeral() {
		return "", 0, nil, zookeeper.NewPathError("mkdir", path, zookeeper.ErrInvalidParentState)
	}

	actual := path
	if mode.IsSequential() {
		// The counter is consumed even if the name turns out to be taken so it is never reused.
		counter := parent.nextSequence(name)
		actual = sequentialName(path, counter)
		if _, ok := d.nodes[actual]; ok {
			d.log.WithField("path", actual).Warn("sequential node already exists, skipping")
			return "", 0, nil, nil
		}
		_, name = splitPath(actual)
	}

	z := d.nextZxid()
	node := NewZNode(actual, mode, bytes.Clone(data))
	node.Czxid = z
	node.Mzxid = z
	d.nodes[actual] = node
	parent.children.Add(name)

	d.record(&persistence.Txn{
		Zxid: z,
		Type: persistence.TxnCreate,
		Path: actual,
		Data: node.data,
		Mode: uint8(mode),
	})

	n := d.newNotification()
	n.add(parent, parent.takeChildWatches())
	return actual, z, n, nil
}

// Rmdir deletes the leaf node at path. The watchers of the node itself and the child
// watchers of its parent are notified.
func (d *DB) Rmdir(path string) error {
	n, err := d.Detach(path)
	if err != nil {
		return err
	}
	n.Fire()
	return nil
}

// Detach deletes the leaf node at path like Rmdir, but leaves it to the caller to fire
// the returned notification.
func (d *DB) Detach(path string) (*Notification, error) {
	return d.detach(path, 0)
}

// RmdirIf deletes the node at path like Rmdir, but only if it is the node created with
// czxid. If the path now holds a different node, nothing is deleted and no error is
// returned.
func (d *DB) RmdirIf(path string, czxid zxid.ZXID) error {
	n, err := d.DetachIf(path, czxid)
	if err != nil {
		return err
	}
	n.Fire()
	return nil
}

// DetachIf is the deferred form of RmdirIf. The returned notification is nil when a
// different node lives at path.
func (d *DB) DetachIf(path string, czxid zxid.ZXID) (*Notification, error) {
	return d.detach(path, czxid)
}

// detach removes the node at path. A non zero czxid restricts the removal to the node
// created with it.
func (d *DB) detach(path string, czxid zxid.ZXID) (*Notification, error) {
	if err := validatePath(path); err != nil {
		return nil, zookeeper.NewPathError("rmdir", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.nodes[path]
	if !ok {
		return nil, zookeeper.NewPathError("rmdir", path, zookeeper.ErrNoNode)
	}
	if czxid != 0 && node.Czxid != czxid {
		d.log.WithFields(logrus.Fields{
			"path":  path,
			"czxid": node.Czxid,
			"want":  czxid,
		}).Debug("node was recreated, leaving it alone")
		return nil, nil
	}
	if node.children.Size() > 0 {
		return nil, zookeeper.NewPathError("rmdir", path, zookeeper.ErrNotEmpty)
	}

	delete(d.nodes, path)
	parentPath, name := splitPath(path)
	parent := d.nodes[parentPath]
	parent.children.Remove(name)

	d.record(&persistence.Txn{
		Zxid: d.nextZxid(),
		Type: persistence.TxnDelete,
		Path: path,
	})

	// The node is gone, so every pending watch on it fires one last time.
	n := d.newNotification()
	n.add(node, append(node.takeDataWatches(), node.takeChildWatches()...))
	n.add(parent, parent.takeChildWatches())
	return n, nil
}

// Exists returns whether a node exists at path. If it does and watcher isn't nil, the
// watcher is registered for the next data change or deletion of the node.
func (d *DB) Exists(path string, watcher zookeeper.Watcher) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.nodes[path]
	if ok && watcher != nil {
		node.dataWatches = append(node.dataWatches, newWatch(watcher))
	}
	return ok
}

// GetData returns a copy of the data stored at path and registers watcher like Exists.
func (d *DB) GetData(path string, watcher zookeeper.Watcher) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.nodes[path]
	if !ok {
		return nil, zookeeper.NewPathError("getData", path, zookeeper.ErrNoNode)
	}
	if watcher != nil {
		node.dataWatches = append(node.dataWatches, newWatch(watcher))
	}
	return bytes.Clone(node.data), nil
}

// SetData replaces the data stored at path and notifies the data watchers of the node.
// The new data is visible before any watcher is called.
func (d *DB) SetData(path string, data []byte) error {
	n, err := d.setData(path, data)
	if err != nil {
		return err
	}
	n.Fire()
	return nil
}

func (d *DB) setData(path string, data []byte) (*Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.nodes[path]
	if !ok {
		return nil, zookeeper.NewPathError("setData", path, zookeeper.ErrNoNode)
	}
	node.data = bytes.Clone(data)
	node.Version++
	node.Mzxid = d.nextZxid()

	d.record(&persistence.Txn{
		Zxid: node.Mzxid,
		Type: persistence.TxnSetData,
		Path: path,
		Data: node.data,
	})

	n := d.newNotification()
	n.add(node, node.takeDataWatches())
	return n, nil
}

// GetSubdirs returns the names of the children of the node at path, in the order they
// were created. If watcher isn't nil, it is registered for the next addition or removal
// of a child.
func (d *DB) GetSubdirs(path string, watcher zookeeper.Watcher) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.nodes[path]
	if !ok {
		return nil, zookeeper.NewPathError("getSubdirs", path, zookeeper.ErrNoNode)
	}
	if watcher != nil {
		node.childWatches = append(node.childWatches, newWatch(watcher))
	}
	return node.childNames(), nil
}

func (d *DB) Stat(path string) (Stat, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.nodes[path]
	if !ok {
		return Stat{}, false
	}
	return node.stat(), true
}

// Len returns the number of nodes in the tree, including the root.
func (d *DB) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

// Paths returns every path in the tree, sorted.
func (d *DB) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	paths := make([]string, 0, len(d.nodes))
	for path := range d.nodes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (d *DB) LastZxid() zxid.ZXID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastZxid
}

// Reset drops every node except an empty root. Pending watches are discarded without
// being called. The next mutation starts a new epoch.
func (d *DB) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nodes = newRootMap()
	d.lastZxid = d.lastZxid.NextEpoch()
}

// nextZxid must be called while holding the lock.
func (d *DB) nextZxid() zxid.ZXID {
	d.lastZxid = d.lastZxid.Next()
	return d.lastZxid
}

// record must be called while holding the lock so the journal sees the transactions in
// commit order.
func (d *DB) record(txn *persistence.Txn) {
	if d.journal == nil {
		return
	}
	if err := d.journal.Append(txn); err != nil {
		d.log.WithFields(logrus.Fields{
			"path": txn.Path,
			"zxid": txn.Zxid,
		}).WithError(err).Error("failed to journal transaction")
	}
}

func (d *DB) newNotification() *Notification {
	return &Notification{log: d.log}
}
