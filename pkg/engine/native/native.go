//go:build cgo && unrar

package native

/*
#cgo CFLAGS: -DRARDLL -D_UNIX
#cgo LDFLAGS: -lunrar
#include <stdlib.h>
#include <unrar/dll.hpp>

extern int goUnrarCallback(UINT msg, LPARAM userData, LPARAM p1, LPARAM p2);

static int CALLBACK unrarCallback(UINT msg, LPARAM userData, LPARAM p1, LPARAM p2) {
	return goUnrarCallback(msg, userData, p1, p2);
}

static void prepareOpen(struct RAROpenArchiveDataEx *d, LPARAM userData) {
	d->Callback = unrarCallback;
	d->UserData = userData;
}

static void setCallback(HANDLE h, LPARAM userData) {
	RARSetCallback(h, unrarCallback, userData);
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/engine"
)

var log = logging.Logger("unrar/native")

// Available reports whether the binding was compiled in.
const Available = true

// minDllVersion is the oldest RAR_DLL_VERSION with RAROpenArchiveEx callbacks.
const minDllVersion = 6

// Engine drives libunrar. The library keeps no shared state between archive
// handles, so one Engine serves any number of concurrent sessions.
type Engine struct {
	log *zap.SugaredLogger
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{log: &log.SugaredLogger}
}

func (e *Engine) WithLogger(l *zap.SugaredLogger) *Engine {
	if l != nil {
		e.log = l
	}
	return e
}

// Init checks that the linked library is recent enough.
func (e *Engine) Init() error {
	if v := int(C.RARGetDllVersion()); v < minDllVersion {
		return &VersionError{Have: v, Want: minDllVersion}
	}
	return nil
}

func (e *Engine) Inspect(path string, h engine.Hooks) (engine.Metadata, engine.Code) {
	return e.process(path, "", C.RAR_OM_LIST, h)
}

func (e *Engine) Extract(path, dest string, h engine.Hooks) (engine.Metadata, engine.Code) {
	return e.process(path, dest, C.RAR_OM_EXTRACT, h)
}

func (e *Engine) process(path, dest string, mode C.uint, h engine.Hooks) (engine.Metadata, engine.Code) {
	meta := engine.DefaultMetadata()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cmt := (*C.char)(C.malloc(commentBufSize))
	defer C.free(unsafe.Pointer(cmt))

	handle := cgo.NewHandle(&callbackState{hooks: h, log: e.log})
	defer handle.Delete()
	userData := C.LPARAM(handle)

	var data C.struct_RAROpenArchiveDataEx
	data.ArcName = cPath
	data.OpenMode = mode
	data.CmtBuf = cmt
	data.CmtBufSize = commentBufSize
	C.prepareOpen(&data, userData)

	arc := C.RAROpenArchiveEx(&data)
	if data.OpenResult != 0 {
		code := engine.ParseCode(int(data.OpenResult))
		e.log.Debugw("open failed", "archive", path, "code", code)
		return meta, code
	}
	defer C.RARCloseArchive(arc)
	C.setCallback(arc, userData)

	readFlags(&meta, uint(data.Flags))
	if data.CmtState == 1 || data.CmtState == C.ERAR_SMALL_BUF {
		meta.HasComment = true
		meta.Comment = commentString(cmt, int(data.CmtSize))
	}

	var cDest *C.char
	if mode == C.RAR_OM_EXTRACT {
		cDest = C.CString(dest)
		defer C.free(unsafe.Pointer(cDest))
	}

	for {
		var hd C.struct_RARHeaderDataEx
		if r := C.RARReadHeaderEx(arc, &hd); r != 0 {
			code := engine.ParseCode(int(r))
			if code == engine.EndArchive {
				return meta, engine.Success
			}
			return meta, code
		}

		meta.Items++
		if uint(hd.Flags)&C.RHDF_ENCRYPTED != 0 {
			meta.Encrypted = true
		}

		op := C.int(C.RAR_SKIP)
		if mode == C.RAR_OM_EXTRACT {
			op = C.RAR_EXTRACT
		}
		r := C.RARProcessFile(arc, op, cDest, nil)
		if mode == C.RAR_OM_EXTRACT {
			h.FileProcessed(int(r), C.GoString(&hd.FileName[0]))
		}
		if r != 0 {
			return meta, engine.ParseCode(int(r))
		}
	}
}

func readFlags(meta *engine.Metadata, flags uint) {
	meta.Volume = flags&C.ROADF_VOLUME != 0
	meta.HasComment = flags&C.ROADF_COMMENT != 0
	meta.Locked = flags&C.ROADF_LOCK != 0
	meta.Solid = flags&C.ROADF_SOLID != 0
	meta.Signed = flags&C.ROADF_SIGNED != 0
	meta.RecoveryRecord = flags&C.ROADF_RECOVERY != 0
	meta.Encrypted = flags&C.ROADF_ENCHEADERS != 0
	meta.FirstVolume = flags&C.ROADF_FIRSTVOLUME != 0 || !meta.Volume
}

// commentString copies size bytes of the comment buffer; size includes the
// trailing NUL.
func commentString(buf *C.char, size int) string {
	if size > commentBufSize {
		size = commentBufSize
	}
	if size > 0 {
		size--
	}
	return C.GoStringN(buf, C.int(size))
}
