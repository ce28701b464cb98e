package zookeeper

//go:generate mockgen -source=interface.go -destination=mocks/mock_session.go -package=mock_zookeeper

// Session is a client's handle on the coordination tree. It is the unit of ephemeral
// node ownership: every ephemeral node created through a Session is removed once that
// Session stops.
type Session interface {
	// Mkdir creates the node at path, stores data in it, and returns the actual path that
	// was created. Sequential modes append a fixed width counter to the last segment of the
	// path. If a non-sequential node already exists at path, the returned path is empty
	// and no error is returned.
	Mkdir(path string, data []byte, mode DirMode) (string, error)
	// Rmdir deletes the node at path. Only leaf nodes can be deleted.
	Rmdir(path string) error
	// Exists returns true if the node at path exists. If it does and watcher is not nil,
	// watcher will be called once on the next data change or deletion of the node.
	Exists(path string, watcher Watcher) (bool, error)
	// GetData returns the data stored at path. The watcher works in the same way as it does
	// for Exists.
	GetData(path string, watcher Watcher) ([]byte, error)
	// SetData replaces the data stored at path. A nil data clears it.
	SetData(path string, data []byte) error
	// GetSubdirs returns the names of the children of the node at path. If watcher is not
	// nil, it will be called once on the next addition or removal of a child.
	GetSubdirs(path string, watcher Watcher) ([]string, error)
	// Stop ends the session. It is safe to call more than once.
	Stop()
}
