package znode

import (
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/mikekulinski/coordination/pkg/zxid"
)

// ZNode is a single node of the tree. Apart from Path and Mode, which never change, the
// fields are only accessed while holding the lock of the DB that owns the node.
type ZNode struct {
	Path string
	Mode zookeeper.DirMode

	// ZNode metadata.
	Version int64
	Czxid   zxid.ZXID
	Mzxid   zxid.ZXID

	// data is the data stored here by the client.
	data []byte
	// children holds the names of the children in the order they were created.
	children *linkedhashset.Set
	// sequences maps the requested name of a sequential child to the next counter to hand out.
	sequences map[string]int64

	dataWatches  []*watch
	childWatches []*watch

	dispatch dispatcher
}

func NewZNode(path string, mode zookeeper.DirMode, data []byte) *ZNode {
	return &ZNode{
		Path:     path,
		Mode:     mode,
		data:     data,
		children: linkedhashset.New(),
	}
}

// Stat is a point in time copy of a node's metadata.
type Stat struct {
	Version     int64
	Czxid       zxid.ZXID
	Mzxid       zxid.ZXID
	NumChildren int
	Mode        zookeeper.DirMode
	DataLength  int
}

func (z *ZNode) stat() Stat {
	return Stat{
		Version:     z.Version,
		Czxid:       z.Czxid,
		Mzxid:       z.Mzxid,
		NumChildren: z.children.Size(),
		Mode:        z.Mode,
		DataLength:  len(z.data),
	}
}

// childNames returns a copy of the children names so the caller never observes later
// mutations.
func (z *ZNode) childNames() []string {
	values := z.children.Values()
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.(string))
	}
	return names
}

func (z *ZNode) nextSequence(prefix string) int64 {
	if z.sequences == nil {
		z.sequences = map[string]int64{}
	}
	counter := z.sequences[prefix]
	z.sequences[prefix] = counter + 1
	return counter
}

// takeDataWatches removes and returns every registered data watch. Each registration
// can only be taken once.
func (z *ZNode) takeDataWatches() []*watch {
	watches := z.dataWatches
	z.dataWatches = nil
	return watches
}

func (z *ZNode) takeChildWatches() []*watch {
	watches := z.childWatches
	z.childWatches = nil
	return watches
}
