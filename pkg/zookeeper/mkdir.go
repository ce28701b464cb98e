package zookeeper

import (
	"fmt"
	"strings"
)

// RecursiveMkdir creates every missing node along path with the given mode. Segments that
// already exist are left alone.
func RecursiveMkdir(s Session, path string, mode DirMode) error {
	if !strings.HasPrefix(path, "/") {
		return NewPathError("recursive mkdir", path, ErrInvalidPath)
	}
	names := strings.Split(strings.TrimSuffix(path, "/"), "/")[1:]

	current := ""
	for _, name := range names {
		if name == "" {
			return NewPathError("recursive mkdir", path, ErrInvalidPath)
		}
		current += "/" + name
		// An empty result just means the node was already there.
		if _, err := s.Mkdir(current, nil, mode); err != nil {
			return fmt.Errorf("creating [%s]: %w", current, err)
		}
	}
	return nil
}
