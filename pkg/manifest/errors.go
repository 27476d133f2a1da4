package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrInterrupted is returned when the walk is cancelled.
	ErrInterrupted = errors.New("manifest build was interrupted")

	// ErrNotDirectory is returned when the root is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrInvalidNodeType is returned for entries that are neither files,
	// directories nor symlinks.
	ErrInvalidNodeType = errors.New("unknown file type")
)

// BuildError is a failure on one path of the tree.
type BuildError struct {
	Path string
	Op   string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("manifest error %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
