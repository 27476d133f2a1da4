// Package session drives one archive through an engine while relaying
// progress to a listener and pausing on password challenges.
//
// The goroutine that calls Inspect or Extract is the worker. Every listener
// callback runs on it, in engine order. When the engine asks for a password
// the worker parks until another goroutine calls SetPassword or the context
// passed to the operation ends. Nothing else blocks.
package session

import (
	"context"
	"path/filepath"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/gate"
	"github.com/tragoedia0722/unrar/pkg/relay"
)

var log = logging.Logger("unrar/session")

// Session is the façade over one archive. It extracts at most once but may be
// inspected any number of times while idle.
type Session struct {
	rt    *engine.Runtime
	gate  *gate.Gate
	relay *relay.Relay
	log   *zap.SugaredLogger

	mu        sync.Mutex
	state     State
	busy      bool
	extracted bool
	meta      engine.Metadata
	result    engine.Code
}

// New returns a Session that runs its operations on rt.
func New(rt *engine.Runtime, opts ...Option) *Session {
	s := &Session{
		rt:     rt,
		relay:  relay.New(nil),
		log:    &log.SugaredLogger,
		state:  Created,
		meta:   engine.DefaultMetadata(),
		result: engine.Success,
	}
	s.gate = gate.New(s.relay.NotifyPasswordRequired)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachListener sets the listener for subsequent operations.
func (s *Session) AttachListener(l relay.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.relay.Attach(l)
	s.configure()
	return nil
}

// DetachListener removes the listener.
func (s *Session) DetachListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.relay.Detach()
	return nil
}

// SetPassword answers the pending challenge, or the next one if none is
// pending. It may be called from any goroutine at any time.
func (s *Session) SetPassword(secret string) {
	s.gate.Supply(secret)

	s.mu.Lock()
	s.configure()
	s.mu.Unlock()
}

// ClearPassword forgets a password that no challenge has consumed yet and
// clears PasswordSupplied. A challenge already waiting stays armed.
func (s *Session) ClearPassword() {
	s.gate.Reset()
}

// PasswordSupplied reports whether SetPassword has been called.
func (s *Session) PasswordSupplied() bool {
	return s.gate.Supplied()
}

// Metadata returns what the engine reported about the archive during the last
// operation.
func (s *Session) Metadata() engine.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the code of the extraction, Success before it ran.
func (s *Session) Result() engine.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Stats returns the progress counters of the latest Inspect or Extract.
func (s *Session) Stats() relay.Stats {
	return s.relay.Stats()
}

// Inspect opens path read-only and records its metadata. It does not move the
// session through its lifecycle.
func (s *Session) Inspect(ctx context.Context, path string) (engine.Code, error) {
	path, err := expandPath("inspect", path)
	if err != nil {
		return engine.EOpen, err
	}

	if err = s.acquire(false); err != nil {
		return engine.Unknown, err
	}
	defer s.release()
	s.relay.Reset()

	if err = s.rt.Init(); err != nil {
		return engine.Unknown, err
	}

	h := s.newHooks(ctx, false)
	meta, code := s.rt.Engine().Inspect(path, h)

	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()

	s.log.Debugw("inspected archive", "archive", path, "code", code, "encrypted", meta.Encrypted, "items", meta.Items)
	return code, h.err
}

// Extract unpacks path below dest. The returned code is the engine's, passed
// through unchanged. ctx only interrupts a password wait; once interrupted,
// the challenge is declined and the engine decides the final code.
func (s *Session) Extract(ctx context.Context, path, dest string) (engine.Code, error) {
	path, err := expandPath("extract", path)
	if err != nil {
		return engine.EOpen, err
	}
	dest, err = expandPath("extract", dest)
	if err != nil {
		return engine.ECreate, err
	}

	if err = s.acquire(true); err != nil {
		return engine.Unknown, err
	}
	defer s.release()
	s.relay.Reset()

	if err = s.rt.Init(); err != nil {
		s.finish(engine.DefaultMetadata(), engine.Unknown, err)
		return engine.Unknown, err
	}

	s.log.Debugw("extracting archive", "archive", path, "dest", dest)

	h := s.newHooks(ctx, true)
	meta, code := s.rt.Engine().Extract(path, dest, h)
	s.finish(meta, code, h.err)

	st := s.relay.Stats()
	if code.Completed() && h.err == nil {
		s.log.Infow("extraction finished", "archive", path, "files", st.Files, "bytes", st.Bytes)
	} else {
		s.log.Warnw("extraction failed", "archive", path, "code", code, "error", h.err, "cancelled", st.Cancelled)
	}
	return code, h.err
}

func (s *Session) acquire(extract bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	if extract {
		if s.extracted {
			return ErrSessionFinished
		}
		s.extracted = true
		s.state = Running
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) finish(meta engine.Metadata, code engine.Code, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta = meta
	s.result = code
	if code.Completed() && err == nil {
		s.state = Completed
	} else {
		s.state = Failed
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// configure must be called with s.mu held.
func (s *Session) configure() {
	if s.state == Created {
		s.state = Configuring
	}
}

func expandPath(op, p string) (string, error) {
	expanded, err := homedir.Expand(filepath.Clean(p))
	if err != nil {
		return "", &PathError{Path: p, Op: op, Err: err}
	}
	return expanded, nil
}
