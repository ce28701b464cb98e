package znode

import (
	"fmt"
	"strings"

	"github.com/mikekulinski/coordination/pkg/zookeeper"
)

const RootPath = "/"

// validatePath verifies that the path received from the client names a node other than
// the root.
func validatePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: path does not start at the root", zookeeper.ErrInvalidPath)
	}

	if path == RootPath {
		return fmt.Errorf("%w: path cannot be the root", zookeeper.ErrInvalidPath)
	}

	if strings.HasSuffix(path, "/") {
		return fmt.Errorf("%w: path should end in a node name, not a '/'", zookeeper.ErrInvalidPath)
	}

	names := strings.Split(path, "/")
	// Since we have a leading /, then we expect the first name to be empty.
	for _, name := range names[1:] {
		if name == "" {
			return fmt.Errorf("%w: path contains an empty node name", zookeeper.ErrInvalidPath)
		}
	}
	return nil
}

// splitPath returns the parent path and the last segment of path. The parent of a node
// directly under the root is the root itself.
func splitPath(path string) (parent string, name string) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return RootPath, path[idx+1:]
	}
	return path[:idx], path[idx+1:]
}

// sequentialName appends the zero padded counter to the requested path. The fixed width
// keeps lexicographic and numeric order of the siblings the same.
func sequentialName(path string, counter int64) string {
	return fmt.Sprintf("%s%010d", path, counter)
}
