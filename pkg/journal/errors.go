package journal

import "errors"

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidID is returned for ids that are not UUIDs.
	ErrInvalidID = errors.New("invalid job id")

	// ErrAmbiguous is returned by Find when a prefix matches several jobs.
	ErrAmbiguous = errors.New("job id prefix is ambiguous")

	// ErrNoManifest is returned when a job finished without a manifest.
	ErrNoManifest = errors.New("job has no manifest")

	// ErrFinished is returned when finishing a job twice.
	ErrFinished = errors.New("job already finished")
)
