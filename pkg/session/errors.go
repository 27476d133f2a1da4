package session

import (
	"errors"
	"fmt"

	"github.com/tragoedia0722/unrar/pkg/gate"
)

var (
	// ErrBusy is returned when an operation is already running on the session.
	ErrBusy = errors.New("session is busy")

	// ErrSessionFinished is returned by a second Extract call.
	ErrSessionFinished = errors.New("session already extracted an archive")

	// ErrInterrupted is returned when the context ends while the session waits
	// for a password.
	ErrInterrupted = gate.ErrInterrupted
)

// PathError reports a path that could not be resolved.
type PathError struct {
	Path string
	Op   string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
