// Package enginetest provides a scripted engine.Engine for tests.
//
// Engine replays a list of steps on every Extract call. Password steps
// compare the secret returned by the hooks with the expected one, so tests can
// model wrong-password and declined-password outcomes without an archive.
package enginetest

import (
	"sync"
	"sync/atomic"

	"github.com/tragoedia0722/unrar/pkg/engine"
)

// Step is one scripted upcall.
type Step struct {
	kind   stepKind
	want   string
	n      int
	id     int
	name   string
	result engine.Code
}

type stepKind int

const (
	stepPassword stepKind = iota
	stepData
	stepFile
	stepFail
)

// Password issues a password upcall. A declined password ends the run with
// MissingPassword; a secret other than want ends it with BadPassword.
func Password(want string) Step {
	return Step{kind: stepPassword, want: want}
}

// Data issues DataProcessed(n). A -1 reply ends the run with Unknown.
func Data(n int) Step {
	return Step{kind: stepData, n: n}
}

// File issues FileProcessed(id, name).
func File(id int, name string) Step {
	return Step{kind: stepFile, id: id, name: name}
}

// Fail ends the run with c.
func Fail(c engine.Code) Step {
	return Step{kind: stepFail, result: c}
}

// Engine replays Steps. The zero value succeeds without upcalls.
type Engine struct {
	Steps []Step

	// Result is returned when every step ran. Zero means Success.
	Result engine.Code

	// InitErr is returned by Init.
	InitErr error

	// Meta is returned by Inspect.
	Meta engine.Metadata

	// InspectSteps are replayed by Inspect.
	InspectSteps []Step

	inits    atomic.Int32
	mu       sync.Mutex
	secrets  []string
	lastDest string
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Init() error {
	e.inits.Add(1)
	return e.InitErr
}

// Inits returns how many times Init ran.
func (e *Engine) Inits() int {
	return int(e.inits.Load())
}

func (e *Engine) Inspect(path string, h engine.Hooks) (engine.Metadata, engine.Code) {
	if c := e.run(e.InspectSteps, h); c != engine.Success {
		return engine.DefaultMetadata(), c
	}
	return e.Meta, e.Result
}

func (e *Engine) Extract(path, dest string, h engine.Hooks) (engine.Metadata, engine.Code) {
	e.mu.Lock()
	e.lastDest = dest
	e.mu.Unlock()

	if c := e.run(e.Steps, h); c != engine.Success {
		return e.Meta, c
	}
	return e.Meta, e.Result
}

// Secrets returns every password the hooks handed to the engine, in order.
func (e *Engine) Secrets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.secrets...)
}

// Dest returns the destination of the last Extract call.
func (e *Engine) Dest() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDest
}

func (e *Engine) run(steps []Step, h engine.Hooks) engine.Code {
	for _, s := range steps {
		switch s.kind {
		case stepPassword:
			secret, ok := h.Password()
			if !ok {
				return engine.MissingPassword
			}
			e.mu.Lock()
			e.secrets = append(e.secrets, secret)
			e.mu.Unlock()
			if secret != s.want {
				return engine.BadPassword
			}
		case stepData:
			if h.DataProcessed(s.n) == -1 {
				return engine.Unknown
			}
		case stepFile:
			h.FileProcessed(s.id, s.name)
		case stepFail:
			return s.result
		}
	}
	return engine.Success
}
