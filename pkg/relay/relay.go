// Package relay forwards engine progress upcalls to a consumer Listener.
//
// All Notify methods run synchronously on the goroutine that issued the
// upcall, in the order the engine emitted them. A Listener that blocks stalls
// the extraction.
package relay

import (
	"sync/atomic"
)

// Continue and Cancel are the data-processed return values understood by the
// engines. Only Cancel (-1) stops an operation.
const (
	Continue = 1
	Cancel   = -1
)

// Listener receives extraction events.
type Listener interface {
	// OnFileProcessed reports one archive entry and its result code.
	OnFileProcessed(id int, name string)

	// OnPasswordRequired asks the consumer to eventually call SetPassword on
	// the session. It may be called several times per session.
	OnPasswordRequired()

	// OnDataProcessed reports n unpacked bytes. Return a non-zero value to
	// continue or Cancel to abort.
	OnDataProcessed(n int) int
}

// Relay forwards upcalls to at most one Listener and counts them.
//
// The listener must be attached or detached only while no operation is
// running. The counters may be read from any goroutine.
type Relay struct {
	listener Listener

	bytes      atomic.Int64
	files      atomic.Int64
	challenges atomic.Int64
	cancelled  atomic.Bool
}

// New returns a Relay for l, which may be nil.
func New(l Listener) *Relay {
	return &Relay{listener: l}
}

// Attach sets the listener.
func (r *Relay) Attach(l Listener) {
	r.listener = l
}

// Detach removes the listener.
func (r *Relay) Detach() {
	r.listener = nil
}

// Listener returns the attached listener or nil.
func (r *Relay) Listener() Listener {
	return r.listener
}

// NotifyFileProcessed forwards a processed entry.
func (r *Relay) NotifyFileProcessed(id int, name string) {
	r.files.Add(1)
	if r.listener != nil {
		r.listener.OnFileProcessed(id, name)
	}
}

// NotifyDataProcessed forwards n and returns the listener's decision
// unchanged, or Continue when nobody listens.
func (r *Relay) NotifyDataProcessed(n int) int {
	r.bytes.Add(int64(n))
	if r.listener == nil {
		return Continue
	}

	ret := r.listener.OnDataProcessed(n)
	if ret == Cancel {
		r.cancelled.Store(true)
	}
	return ret
}

// NotifyPasswordRequired forwards a password challenge.
func (r *Relay) NotifyPasswordRequired() {
	r.challenges.Add(1)
	if r.listener != nil {
		r.listener.OnPasswordRequired()
	}
}

// Stats is a snapshot of the relay counters.
type Stats struct {
	Bytes      int64
	Files      int64
	Challenges int64
	Cancelled  bool
}

// Stats returns the current counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Bytes:      r.bytes.Load(),
		Files:      r.files.Load(),
		Challenges: r.challenges.Load(),
		Cancelled:  r.cancelled.Load(),
	}
}

// Reset zeroes the counters.
func (r *Relay) Reset() {
	r.bytes.Store(0)
	r.files.Store(0)
	r.challenges.Store(0)
	r.cancelled.Store(false)
}
