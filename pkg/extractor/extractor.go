package extractor

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/ratelimit"
)

// ChunkFunc is called after each written chunk with its size. Returning false
// stops the copy with ErrInterrupted.
type ChunkFunc func(n int) bool

// Extractor writes archive entries below a base directory. Entry names are
// normalized and never escape the base, and no existing symlink inside the
// base is followed.
type Extractor struct {
	basePath   string
	overwrite  bool
	chunkSize  int
	bucket     *ratelimit.Bucket
	bufferPool sync.Pool
}

func NewExtractor(basePath string) *Extractor {
	e := &Extractor{
		basePath:  filepath.Clean(basePath),
		chunkSize: defaultChunkSize,
	}
	e.bufferPool.New = func() interface{} {
		buf := make([]byte, e.chunkSize)
		return &buf
	}
	return e
}

// WithOverwrite allows replacing existing files.
func (e *Extractor) WithOverwrite(overwrite bool) *Extractor {
	e.overwrite = overwrite
	return e
}

// WithChunkSize sets the copy chunk size, clamped to (0, 4MB]. Call it before
// the first write.
func (e *Extractor) WithChunkSize(n int) *Extractor {
	switch {
	case n <= 0:
		n = defaultChunkSize
	case n > maxChunkSize:
		n = maxChunkSize
	}
	e.chunkSize = n
	return e
}

// WithRateLimit throttles reads from entry data through b.
func (e *Extractor) WithRateLimit(b *ratelimit.Bucket) *Extractor {
	e.bucket = b
	return e
}

// Resolve maps an entry name to its absolute destination.
func (e *Extractor) Resolve(name string) (string, error) {
	rel, err := normalizeEntryName(name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.basePath, rel)
	if !isSubPath(path, e.basePath) {
		return "", pathErr("resolve", name, ErrPathTraversal)
	}
	if err := ensureNoSymlinkInPath(e.basePath, filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}

// Mkdir creates the directory entry name. Existing directories are merged.
func (e *Extractor) Mkdir(name string) error {
	path, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if err := e.prepareTarget(path, true); err != nil {
		return err
	}
	if err := os.MkdirAll(path, dirPermissions); err != nil {
		return pathErr("mkdir", path, err)
	}
	return nil
}

// Symlink creates name pointing at target. target must be relative and stay
// inside the link's tree.
func (e *Extractor) Symlink(name, target string) error {
	if !validateSymlinkTarget(target) {
		return badName(ErrInvalidSymlinkTarget, target)
	}

	path, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if err := e.prepareTarget(path, false); err != nil {
		return err
	}
	if err := createParentDirectories(path); err != nil {
		return err
	}
	if err := os.Symlink(target, path); err != nil {
		return pathErr("symlink", path, err)
	}
	return nil
}

// WriteFile copies r into the file entry name. Data goes to a ".part" file
// that is renamed into place once complete, so an interrupted entry leaves
// nothing behind. Read errors from r are returned unwrapped.
func (e *Extractor) WriteFile(name string, r io.Reader, mode fs.FileMode, modTime time.Time, onChunk ChunkFunc) (int64, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return 0, err
	}
	if err := e.prepareTarget(path, false); err != nil {
		return 0, err
	}
	if err := createParentDirectories(path); err != nil {
		return 0, err
	}

	partPath := path + partFileSuffix
	f, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm(mode))
	if err != nil {
		return 0, pathErr("create", path, err)
	}

	n, err := e.copyChunks(f, r, name, onChunk)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(partPath)
		return n, err
	}
	if closeErr != nil {
		_ = os.Remove(partPath)
		return n, pathErr("close", path, closeErr)
	}

	if err := os.Rename(partPath, path); err != nil {
		_ = os.Remove(partPath)
		return n, pathErr("rename", path, err)
	}

	if !modTime.IsZero() {
		_ = os.Chtimes(path, modTime, modTime)
	}
	return n, nil
}

func (e *Extractor) copyChunks(w io.Writer, r io.Reader, name string, onChunk ChunkFunc) (int64, error) {
	if e.bucket != nil {
		r = ratelimit.Reader(r, e.bucket)
	}

	bufp := e.bufferPool.Get().(*[]byte)
	defer e.bufferPool.Put(bufp)
	if cap(*bufp) < e.chunkSize {
		*bufp = make([]byte, e.chunkSize)
	}
	buf := (*bufp)[:e.chunkSize]

	var written int64
	for {
		nr, rerr := r.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			written += int64(nw)
			if werr == nil && nw < nr {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, pathErr("write", name, werr)
			}
			if onChunk != nil && !onChunk(nw) {
				return written, ErrInterrupted
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// prepareTarget clears path for a new entry. A directory entry over an
// existing directory is kept.
func (e *Extractor) prepareTarget(path string, isDir bool) error {
	info, err := getPathInfo(path)
	if err != nil {
		return err
	}
	if !info.exists {
		return nil
	}
	if isDir && info.IsDir() {
		return nil
	}
	if !e.overwrite {
		return pathErr("create", path, ErrPathExistsOverwrite)
	}
	return removePath(path)
}
