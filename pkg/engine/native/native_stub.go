//go:build !cgo || !unrar

package native

import (
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/engine"
)

// Available reports whether the binding was compiled in.
const Available = false

// Engine is a placeholder that never initializes.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{}
}

func (e *Engine) WithLogger(*zap.SugaredLogger) *Engine {
	return e
}

func (*Engine) Init() error {
	return ErrUnavailable
}

func (*Engine) Inspect(string, engine.Hooks) (engine.Metadata, engine.Code) {
	return engine.DefaultMetadata(), engine.Unknown
}

func (*Engine) Extract(string, string, engine.Hooks) (engine.Metadata, engine.Code) {
	return engine.DefaultMetadata(), engine.Unknown
}
