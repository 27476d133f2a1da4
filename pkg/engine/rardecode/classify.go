package rardecode

import (
	"errors"
	"io"
	"io/fs"

	"github.com/nwaples/rardecode/v2"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/extractor"
)

// classify maps decoder and filesystem errors onto engine codes.
func classify(err error) engine.Code {
	var pathErr *extractor.PathError

	switch {
	case err == nil:
		return engine.Success
	case errors.Is(err, rardecode.ErrBadPassword):
		return engine.BadPassword
	case isPasswordRequired(err):
		return engine.MissingPassword
	case errors.Is(err, rardecode.ErrNoSig):
		return engine.UnknownFormat
	case errors.Is(err, extractor.ErrInterrupted):
		// unrar reports a user break as an unknown error.
		return engine.Unknown
	case errors.As(err, &pathErr):
		return classifyPathError(pathErr)
	case errors.Is(err, extractor.ErrPathTraversalAttempt),
		errors.Is(err, extractor.ErrInvalidPathComponent),
		errors.Is(err, extractor.ErrInvalidDirectoryEntry),
		errors.Is(err, extractor.ErrInvalidSymlinkTarget):
		return engine.ECreate
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return engine.EOpen
	case errors.Is(err, io.ErrUnexpectedEOF):
		return engine.BadArchive
	default:
		return engine.BadData
	}
}

func classifyPathError(err *extractor.PathError) engine.Code {
	switch err.Op {
	case "write":
		return engine.EWrite
	case "close":
		return engine.EClose
	default:
		return engine.ECreate
	}
}
