package native

import "fmt"

// VersionError reports a libunrar older than the binding needs.
type VersionError struct {
	Have int
	Want int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("libunrar API version %d is older than %d", e.Have, e.Want)
}
