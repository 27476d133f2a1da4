package session

import (
	"context"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/relay"
)

// hooks binds the engine upcalls of one operation to its session and context.
type hooks struct {
	s       *Session
	ctx     context.Context
	tracked bool
	err     error
}

var _ engine.Hooks = (*hooks)(nil)

func (s *Session) newHooks(ctx context.Context, tracked bool) *hooks {
	if ctx == nil {
		ctx = context.Background()
	}
	return &hooks{s: s, ctx: ctx, tracked: tracked}
}

func (h *hooks) Password() (string, bool) {
	s := h.s

	// An interrupted wait declines every later challenge of the operation.
	if h.err != nil {
		return "", false
	}

	// Without a listener nobody learns about the challenge, so only a value
	// that is already waiting can answer it.
	if s.relay.Listener() == nil && !s.gate.Pending() {
		s.log.Warnw("password required but no listener attached")
		return "", false
	}

	if h.tracked {
		s.setState(AwaitingPassword)
		defer s.setState(Running)
	}

	secret, err := s.gate.Request(h.ctx)
	if err != nil {
		s.log.Debugw("password wait ended", "error", err)
		h.err = err
		return "", false
	}
	return secret, true
}

func (h *hooks) DataProcessed(n int) int {
	ret := h.s.relay.NotifyDataProcessed(n)
	if ret == relay.Cancel {
		h.s.log.Debugw("listener cancelled operation", "bytes", n)
	}
	return ret
}

func (h *hooks) FileProcessed(id int, name string) {
	h.s.log.Debugw("file processed", "name", name, "code", id)
	h.s.relay.NotifyFileProcessed(id, name)
}
