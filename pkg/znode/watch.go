package znode

import (
	"sync"

	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/sirupsen/logrus"
)

// watch is a single registration of a watcher. Registering the same callback twice
// creates two registrations.
type watch struct {
	fn zookeeper.Watcher
}

func newWatch(fn zookeeper.Watcher) *watch {
	return &watch{fn: fn}
}

// call runs the callback. A panicking watcher is logged and doesn't stop the delivery
// to the other watchers of the batch.
func (w *watch) call(path string, log *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("path", path).Errorf("watcher callback panicked: %v", r)
		}
	}()
	w.fn()
}

// dispatcher serializes the delivery of the watches taken from a single node.
type dispatcher struct {
	mu        sync.Mutex
	inProcess bool
	// toCallQueue holds the watches waiting for the delivery already in progress.
	toCallQueue []*watch
}

// deliver calls every watch of the batch. If another goroutine is already delivering
// for this node, the batch is handed over to it and deliver returns right away. Watches
// queued while the callbacks run, including ones registered and triggered by the
// callbacks themselves, are picked up before the delivery finishes. Callbacks never run
// while holding a lock.
func (z *ZNode) deliver(batch []*watch, log *logrus.Entry) {
	d := &z.dispatch
	d.mu.Lock()
	d.toCallQueue = append(d.toCallQueue, batch...)
	if d.inProcess {
		d.mu.Unlock()
		return
	}

	d.inProcess = true
	for len(d.toCallQueue) > 0 {
		toCall := d.toCallQueue
		d.toCallQueue = nil
		d.mu.Unlock()

		for _, w := range toCall {
			w.call(z.Path, log)
		}

		d.mu.Lock()
	}
	d.inProcess = false
	d.mu.Unlock()
}

// Notification is the delivery owed for a committed mutation.
type Notification struct {
	log     *logrus.Entry
	targets []notifyTarget
}

type notifyTarget struct {
	node  *ZNode
	batch []*watch
}

func (n *Notification) add(node *ZNode, batch []*watch) {
	if len(batch) == 0 {
		return
	}
	n.targets = append(n.targets, notifyTarget{node: node, batch: batch})
}

// Fire delivers the notification. It must not be called while holding the DB lock.
func (n *Notification) Fire() {
	if n == nil {
		return
	}
	for _, t := range n.targets {
		t.node.deliver(t.batch, n.log)
	}
}

// Empty reports whether firing the notification would call any watcher.
func (n *Notification) Empty() bool {
	return n == nil || len(n.targets) == 0
}
