//go:build cgo && unrar

package native

// #include <unrar/dll.hpp>
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/engine"
)

// callbackState is what the library's UserData handle points at.
type callbackState struct {
	hooks engine.Hooks
	log   *zap.SugaredLogger
}

//export goUnrarCallback
func goUnrarCallback(msg C.UINT, userData C.LPARAM, p1 C.LPARAM, p2 C.LPARAM) C.int {
	st, ok := cgo.Handle(userData).Value().(*callbackState)
	if !ok {
		return -1
	}

	switch msg {
	case C.UCM_NEEDPASSWORDW:
		// Declined so the library falls back to the narrow request.
		return -1
	case C.UCM_NEEDPASSWORD:
		return C.int(st.password(unsafe.Pointer(uintptr(p1)), int(p2)))
	case C.UCM_PROCESSDATA:
		return C.int(st.hooks.DataProcessed(int(p2)))
	case C.UCM_CHANGEVOLUME, C.UCM_CHANGEVOLUMEW:
		if p2 == C.RAR_VOL_NOTIFY {
			return 1
		}
		st.log.Debugw("next volume missing")
		return -1
	default:
		return 0
	}
}

// password writes the secret into the library's buffer of size bytes,
// truncated to leave room for the terminating NUL.
func (st *callbackState) password(buf unsafe.Pointer, size int) int {
	secret, ok := st.hooks.Password()
	if !ok || buf == nil || size <= 0 {
		return -1
	}

	dst := unsafe.Slice((*byte)(buf), size)
	n := copy(dst[:size-1], secret)
	dst[n] = 0
	return 1
}
