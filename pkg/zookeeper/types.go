package zookeeper

import "strings"

// Watcher is a one-shot callback. Once it has been called it is discarded and must be
// registered again to observe further changes.
type Watcher func()

// DirMode is the 2-bit creation mode of a node. It is fixed when the node is created.
type DirMode uint8

const (
	flagEphemeral DirMode = 1 << iota
	flagSequential
)

const (
	// Persistent nodes live until they are explicitly deleted.
	Persistent DirMode = 0
	// Ephemeral nodes are automatically destroyed once the session that created them has
	// been terminated (either intentionally or on failure). They cannot have children.
	Ephemeral = flagEphemeral
	// PersistentSequential nodes have a monotonically increasing counter appended to the
	// end of the provided name.
	PersistentSequential = flagSequential
	// EphemeralSequential combines Ephemeral and PersistentSequential.
	EphemeralSequential = flagEphemeral | flagSequential
)

func (m DirMode) IsEphemeral() bool {
	return m&flagEphemeral != 0
}

func (m DirMode) IsSequential() bool {
	return m&flagSequential != 0
}

func (m DirMode) String() string {
	var parts []string
	if m.IsEphemeral() {
		parts = append(parts, "EPHEMERAL")
	} else {
		parts = append(parts, "PERSISTENT")
	}
	if m.IsSequential() {
		parts = append(parts, "SEQUENTIAL")
	}
	return strings.Join(parts, "_")
}
