package journal

import (
	"time"

	"github.com/tragoedia0722/unrar/pkg/engine"
)

// Job is one extraction as recorded in the journal.
type Job struct {
	ID       string    `json:"id"`
	Archive  string    `json:"archive"`
	Dest     string    `json:"dest"`
	State    string    `json:"state"`
	Code     int       `json:"code"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitempty"`

	// Manifest is the CID of the manifest block, Root the manifest root and
	// Size the extracted bytes. All three are empty until a successful finish.
	Manifest string `json:"manifest,omitempty"`
	Root     string `json:"root,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Files    int    `json:"files,omitempty"`
}

// Result returns the engine code the job finished with.
func (j *Job) Result() engine.Code {
	return engine.Code(j.Code)
}

// Done reports whether Finish was called for the job.
func (j *Job) Done() bool {
	return !j.Finished.IsZero()
}
