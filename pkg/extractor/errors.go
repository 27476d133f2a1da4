package extractor

import (
	"errors"
	"fmt"
)

var (
	ErrPathExistsOverwrite = errors.New("destination exists and overwrite is off")

	// ErrPathTraversal means a resolved destination left the base or would
	// pass through a symlink.
	ErrPathTraversal = errors.New("destination escapes base directory")

	// ErrInterrupted is returned once a ChunkFunc asks to stop.
	ErrInterrupted = errors.New("extraction was interrupted")

	// Rejected entry names and link targets.
	ErrInvalidDirectoryEntry = errors.New("entry name is empty")
	ErrPathTraversalAttempt  = errors.New("entry name contains ..")
	ErrInvalidPathComponent  = errors.New("entry name component cleans to nothing")
	ErrInvalidSymlinkTarget  = errors.New("symlink target leaves its tree")
)

// PathError records the filesystem step that failed on Path. Op is one of
// "create", "write", "close", "rename", "mkdir", "symlink", "remove" or
// "resolve".
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}

// badName tags a rejected entry name or link target with its sentinel.
func badName(sentinel error, name string) error {
	return fmt.Errorf("%w: %q", sentinel, name)
}
