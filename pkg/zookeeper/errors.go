package zookeeper

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNode is returned when the operation targets a path that does not exist.
	ErrNoNode = errors.New("node does not exist")
	// ErrNoParent is returned by Mkdir when the parent of the path does not exist.
	ErrNoParent = errors.New("parent node does not exist")
	// ErrInvalidParentState is returned by Mkdir when the parent is ephemeral.
	ErrInvalidParentState = errors.New("ephemeral nodes cannot have children")
	// ErrNotEmpty is returned by Rmdir when the node still has children.
	ErrNotEmpty = errors.New("node has children")
	// ErrSessionStopped is returned by every operation once the session has been stopped.
	ErrSessionStopped = errors.New("session is stopped")
	ErrInvalidPath    = errors.New("invalid path")
	// ErrBackend wraps failures of a remote ensemble that don't map onto any other error.
	ErrBackend = errors.New("coordination backend failure")
)

// PathError records the operation and path that caused an error.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
