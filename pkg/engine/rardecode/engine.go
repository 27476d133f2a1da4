// Package rardecode is a pure Go engine.Engine built on
// github.com/nwaples/rardecode/v2.
//
// The decoder has no password callback, so the engine emulates one: when the
// archive turns out to be encrypted it asks the hooks once, reopens the
// archive with the answer and skips the entries it already wrote.
package rardecode

import (
	"errors"
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/juju/ratelimit"
	"github.com/nwaples/rardecode/v2"
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/extractor"
	"github.com/tragoedia0722/unrar/pkg/volume"
)

var log = logging.Logger("unrar/rardecode")

// maxSymlinkTarget bounds how much of a symlink entry is read as its target.
const maxSymlinkTarget = 4096

// cancelled is the DataProcessed reply that stops an operation.
const cancelled = -1

// Engine extracts RAR archives without cgo.
type Engine struct {
	chunkSize   int
	overwrite   bool
	bucket      *ratelimit.Bucket
	maxDictSize int64
	log         *zap.SugaredLogger
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{log: &log.SugaredLogger}
}

// Init has nothing to set up; the decoder keeps no process-wide state.
func (e *Engine) Init() error {
	return nil
}

// Inspect lists the archive. Encrypted headers end the listing early with
// Encrypted set and Success, without asking for a password.
func (e *Engine) Inspect(path string, h engine.Hooks) (engine.Metadata, engine.Code) {
	meta := engine.DefaultMetadata()
	first := volume.FirstVolume(path)
	meta.FirstVolume = volume.IsFirstVolume(path)
	meta.Volume = volume.IsMultipart(path)

	rc, err := rardecode.OpenReader(first, e.options("")...)
	if err != nil {
		if isPasswordRequired(err) {
			meta.Encrypted = true
			return meta, engine.Success
		}
		e.log.Debugw("open failed", "archive", first, "error", err)
		return meta, classify(err)
	}
	defer rc.Close()

	for {
		fh, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if isPasswordRequired(err) {
				meta.Encrypted = true
				break
			}
			return meta, classify(err)
		}

		meta.Items++
		meta.Solid = meta.Solid || fh.Solid
		meta.Encrypted = meta.Encrypted || fh.Encrypted
	}

	if vols := rc.Volumes(); len(vols) > 0 {
		meta.Volumes = vols
		meta.Volume = meta.Volume || len(vols) > 1
	}
	return meta, engine.Success
}

// Extract unpacks the archive below dest.
func (e *Engine) Extract(path, dest string, h engine.Hooks) (engine.Metadata, engine.Code) {
	meta := engine.DefaultMetadata()
	first := volume.FirstVolume(path)
	meta.FirstVolume = volume.IsFirstVolume(path)
	meta.Volume = volume.IsMultipart(path)

	x := &extraction{
		engine: e,
		hooks:  h,
		writer: e.newExtractor(dest),
		meta:   &meta,
	}

	password := ""
	asked := false
	for {
		code, needPassword := x.run(first, password)
		if !needPassword {
			return meta, code
		}
		if asked {
			// The supplied password did not unlock the entries.
			return meta, engine.BadPassword
		}

		meta.Encrypted = true
		secret, ok := h.Password()
		if !ok {
			return meta, engine.MissingPassword
		}
		password, asked = secret, true
		e.log.Debugw("reopening with password", "archive", first, "skip", x.done)
	}
}

func (e *Engine) newExtractor(dest string) *extractor.Extractor {
	w := extractor.NewExtractor(dest).WithOverwrite(e.overwrite)
	if e.chunkSize > 0 {
		w.WithChunkSize(e.chunkSize)
	}
	if e.bucket != nil {
		w.WithRateLimit(e.bucket)
	}
	return w
}

func (e *Engine) options(password string) []rardecode.Option {
	opts := make([]rardecode.Option, 0, 2)
	if e.maxDictSize > 0 {
		opts = append(opts, rardecode.MaxDictionarySize(e.maxDictSize))
	}
	if password != "" {
		opts = append(opts, rardecode.Password(password))
	}
	return opts
}

// extraction is one Extract call. done counts the entries already finished,
// so a reopen after a password challenge resumes behind them. headers is set
// once the archive turned out to encrypt its headers.
type extraction struct {
	engine  *Engine
	hooks   engine.Hooks
	writer  *extractor.Extractor
	meta    *engine.Metadata
	done    int
	headers bool
}

// run walks the archive once. needPassword is true when an encrypted header
// or entry is met and no password has been tried yet.
func (x *extraction) run(path, password string) (code engine.Code, needPassword bool) {
	rc, err := rardecode.OpenReader(path, x.engine.options(password)...)
	if err != nil {
		if isPasswordRequired(err) {
			x.headers = x.headers || errors.Is(err, rardecode.ErrArchiveEncrypted)
			return engine.MissingPassword, true
		}
		return x.classify(err, password, x.headers), false
	}
	defer rc.Close()

	for index := 0; ; index++ {
		fh, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if isPasswordRequired(err) {
				x.headers = x.headers || errors.Is(err, rardecode.ErrArchiveEncrypted)
				return engine.MissingPassword, true
			}
			return x.classify(err, password, x.headers), false
		}

		x.meta.Solid = x.meta.Solid || fh.Solid
		if index < x.done {
			continue
		}
		if fh.Encrypted && password == "" {
			return engine.MissingPassword, true
		}

		if err := x.writeEntry(rc, fh); err != nil {
			if isPasswordRequired(err) && password == "" {
				return engine.MissingPassword, true
			}
			code := x.classify(err, password, fh.Encrypted || fh.HeaderEncrypted)
			x.engine.log.Debugw("entry failed", "name", fh.Name, "code", code, "error", err)
			x.hooks.FileProcessed(int(code), fh.Name)
			return code, false
		}

		x.hooks.FileProcessed(int(engine.Success), fh.Name)
		x.meta.Items++
		x.done++
	}

	if vols := rc.Volumes(); len(vols) > 0 {
		x.meta.Volumes = vols
		x.meta.Volume = x.meta.Volume || len(vols) > 1
	}
	return engine.Success, false
}

// classify is the package classify, except that decrypted input going bad
// under a password means the password is wrong. RAR 5 checks passwords up
// front; older archives only produce bad header or data checksums.
func (x *extraction) classify(err error, password string, decrypted bool) engine.Code {
	code := classify(err)
	if password == "" || !decrypted {
		return code
	}
	switch code {
	case engine.BadData, engine.BadArchive:
		x.engine.log.Debugw("decryption produced garbage", "error", err)
		return engine.BadPassword
	default:
		return code
	}
}

func (x *extraction) writeEntry(r io.Reader, fh *rardecode.FileHeader) error {
	switch mode := fh.Mode(); {
	case fh.IsDir:
		return x.writer.Mkdir(fh.Name)
	case mode&os.ModeSymlink != 0:
		target, err := io.ReadAll(io.LimitReader(r, maxSymlinkTarget))
		if err != nil {
			return err
		}
		return x.writer.Symlink(fh.Name, string(target))
	default:
		_, err := x.writer.WriteFile(fh.Name, r, mode, fh.ModificationTime, func(n int) bool {
			return x.hooks.DataProcessed(n) != cancelled
		})
		return err
	}
}

func isPasswordRequired(err error) bool {
	return errors.Is(err, rardecode.ErrArchiveEncrypted) ||
		errors.Is(err, rardecode.ErrArchivedFileEncrypted)
}
