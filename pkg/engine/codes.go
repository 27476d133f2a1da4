package engine

import "fmt"

// Code is a status returned by an engine operation. The values are those of
// the unrar library so that native results pass through unchanged.
type Code int

const (
	Success         Code = 0
	EndArchive      Code = 10
	NoMemory        Code = 11
	BadData         Code = 12
	BadArchive      Code = 13
	UnknownFormat   Code = 14
	EOpen           Code = 15
	ECreate         Code = 16
	EClose          Code = 17
	ERead           Code = 18
	EWrite          Code = 19
	SmallBuf        Code = 20
	Unknown         Code = 21
	MissingPassword Code = 22
	BadPassword     Code = 24
)

var codeNames = map[Code]string{
	Success:         "success",
	EndArchive:      "end of archive",
	NoMemory:        "not enough memory",
	BadData:         "bad data",
	BadArchive:      "bad archive",
	UnknownFormat:   "unknown archive format",
	EOpen:           "cannot open archive",
	ECreate:         "cannot create file",
	EClose:          "cannot close file",
	ERead:           "read error",
	EWrite:          "write error",
	SmallBuf:        "buffer too small",
	Unknown:         "unknown error",
	MissingPassword: "password required",
	BadPassword:     "wrong password",
}

// ParseCode maps a raw engine status to a Code. Values outside the known set
// become Unknown.
func ParseCode(v int) Code {
	c := Code(v)
	if _, ok := codeNames[c]; ok {
		return c
	}
	return Unknown
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Completed reports whether c ends an operation cleanly. EndArchive is benign.
func (c Code) Completed() bool {
	return c == Success || c == EndArchive
}

// Err returns nil for completed codes and a *CodeError otherwise.
func (c Code) Err() error {
	if c.Completed() {
		return nil
	}
	return &CodeError{Code: c}
}

// CodeError carries a failed Code through error-returning APIs.
type CodeError struct {
	Code Code
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("unrar: %s (%d)", e.Code, int(e.Code))
}

// Is matches another *CodeError with the same code, so errors.Is works with
// BadPassword.Err() and friends as targets.
func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	return ok && t.Code == e.Code
}
