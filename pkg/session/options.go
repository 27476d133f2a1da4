package session

import (
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/relay"
)

// Option configures a Session at construction.
type Option func(*Session)

// WithListener attaches l before the first operation.
func WithListener(l relay.Listener) Option {
	return func(s *Session) {
		s.relay.Attach(l)
		s.state = Configuring
	}
}

// WithLogger replaces the default "unrar/session" logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPassword pre-seeds the answer to the first password challenge.
func WithPassword(secret string) Option {
	return func(s *Session) {
		s.gate.Supply(secret)
		s.state = Configuring
	}
}
