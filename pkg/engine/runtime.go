package engine

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoEngine is the init failure of a Runtime built without an engine.
var ErrNoEngine = errors.New("no engine configured")

// InitError reports a failed engine initialization. It is returned by every
// Init call after the failure, not only the first one.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine init failed: %v", e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Runtime wraps an Engine with a run-once initialization. Create one per
// process and share it between sessions.
type Runtime struct {
	engine Engine
	once   sync.Once
	err    error
}

// NewRuntime returns a Runtime for e. Initialization is deferred to the first
// Init call.
func NewRuntime(e Engine) *Runtime {
	return &Runtime{engine: e}
}

// Init initializes the engine once. Concurrent callers wait for the first one
// and all of them observe the same result.
func (r *Runtime) Init() error {
	r.once.Do(func() {
		if r.engine == nil {
			r.err = &InitError{Err: ErrNoEngine}
			return
		}
		if err := r.engine.Init(); err != nil {
			r.err = &InitError{Err: err}
		}
	})
	return r.err
}

// Engine returns the wrapped engine.
func (r *Runtime) Engine() Engine {
	return r.engine
}
