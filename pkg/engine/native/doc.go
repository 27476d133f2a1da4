// Package native binds engine.Engine to the unrar shared library (libunrar)
// through cgo.
//
// The binding is compiled only with cgo enabled and the "unrar" build tag:
//
//	go build -tags unrar ./...
//
// Without the tag, New returns an engine whose Init fails with
// ErrUnavailable, so a Runtime built on it reports a sticky init error.
//
// Password challenges, progress and volume changes arrive through the
// library's callback, which is routed back to the Go hooks of the running
// operation with a cgo.Handle.
package native

import "errors"

// ErrUnavailable is the init failure of a build without libunrar.
var ErrUnavailable = errors.New("native unrar engine not compiled in (build with -tags unrar)")

// commentBufSize is the size of the archive comment buffer (64KB).
const commentBufSize = 64 * 1024
