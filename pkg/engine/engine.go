// Package engine defines the boundary between the session layer and an
// archive decompression engine.
//
// An Engine is driven synchronously: Inspect and Extract block for the whole
// operation and call back into Hooks on the calling goroutine. The session
// layer depends on that, because a password upcall may park the calling
// goroutine until another goroutine supplies a secret.
//
// Two implementations ship with the module: package rardecode, a pure Go
// engine, and package native, a cgo binding to libunrar that is only built
// with the "unrar" build tag.
package engine

// Hooks are the upcalls an engine issues while an operation runs.
type Hooks interface {
	// Password is called when the archive needs a password. ok is false when
	// no password will be provided and the engine must give up.
	Password() (secret string, ok bool)

	// DataProcessed reports n unpacked bytes. Returning -1 cancels the
	// operation; any other value continues it.
	DataProcessed(n int) int

	// FileProcessed reports one archive entry. id is the per-entry result
	// code as reported by the engine.
	FileProcessed(id int, name string)
}

// Engine is the set of entry points into a decompression engine.
type Engine interface {
	// Init prepares process-wide engine state. Callers go through Runtime so
	// that it runs once.
	Init() error

	// Inspect opens the archive read-only and reports its metadata.
	Inspect(path string, h Hooks) (Metadata, Code)

	// Extract opens the archive and extracts it below dest. The returned
	// Metadata is whatever the engine learned while opening the archive.
	Extract(path, dest string, h Hooks) (Metadata, Code)
}
