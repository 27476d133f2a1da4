package rardecode

import (
	"github.com/juju/ratelimit"
	"go.uber.org/zap"
)

// WithChunkSize sets how many bytes are written between DataProcessed
// upcalls. Values above 4MB are clamped to 4MB; zero or less keeps the
// default of 64KB.
func (e *Engine) WithChunkSize(n int) *Engine {
	e.chunkSize = n
	return e
}

// WithOverwrite replaces files that already exist below the destination.
func (e *Engine) WithOverwrite(overwrite bool) *Engine {
	e.overwrite = overwrite
	return e
}

// WithBandwidth limits extraction to bytesPerSec. Zero or less disables the
// limit.
func (e *Engine) WithBandwidth(bytesPerSec int64) *Engine {
	if bytesPerSec <= 0 {
		e.bucket = nil
		return e
	}
	e.bucket = ratelimit.NewBucketWithRate(float64(bytesPerSec), bytesPerSec)
	return e
}

// WithMaxDictionarySize refuses archives whose decode window is larger.
func (e *Engine) WithMaxDictionarySize(n int64) *Engine {
	e.maxDictSize = n
	return e
}

func (e *Engine) WithLogger(l *zap.SugaredLogger) *Engine {
	if l != nil {
		e.log = l
	}
	return e
}
