package manifest

import (
	"io"
	"sync/atomic"
)

// ProgressFunc reports hashing progress.
type ProgressFunc func(completed, total int64, currentFile string)

type progressTracker struct {
	processed atomic.Int64
	total     int64
	callback  ProgressFunc
}

func newProgressTracker(total int64, callback ProgressFunc) *progressTracker {
	return &progressTracker{total: total, callback: callback}
}

func (pt *progressTracker) update(n int64, name string) {
	completed := pt.processed.Add(n)
	if pt.callback != nil {
		pt.callback(completed, pt.total, name)
	}
}

// countingReader feeds the tracker as the hasher reads.
type countingReader struct {
	r       io.Reader
	name    string
	tracker *progressTracker
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.tracker.update(int64(n), c.name)
	}
	return n, err
}
