// Package gate implements a password rendezvous between the goroutine running
// an archive operation and a controller goroutine that answers challenges.
//
// A Gate is idle or armed. Request arms it and blocks until Supply delivers a
// value or the context ends. Supply never blocks; on an idle gate it leaves the
// value pending, and the next Request consumes it without waiting.
//
// A supplied value answers exactly one challenge. After it has been consumed,
// the following Request waits for a fresh value, so a wrong password or a
// later volume is never answered with a stale secret.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInterrupted is returned by Request when its context ends while
	// waiting.
	ErrInterrupted = errors.New("password wait interrupted")

	// ErrBusy is returned by Request when another request is already waiting.
	ErrBusy = errors.New("password request already in progress")
)

// Gate is safe for one requesting goroutine and any number of supplying
// goroutines. The zero value is ready to use.
type Gate struct {
	mu       sync.Mutex
	secret   string
	pending  bool
	supplied bool
	waiter   chan string
	notify   func()
}

// New returns a Gate that calls notify each time a Request starts waiting.
func New(notify func()) *Gate {
	return &Gate{notify: notify}
}

// Request returns a password. A pending value is returned at once. Otherwise
// the gate arms, notifies, and waits for Supply or ctx.
func (g *Gate) Request(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.pending {
		secret := g.secret
		g.pending = false
		g.mu.Unlock()
		return secret, nil
	}
	if g.waiter != nil {
		g.mu.Unlock()
		return "", ErrBusy
	}
	// A dead context never arms the gate, so nobody is asked for a value.
	if ctx.Err() != nil {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}

	ch := make(chan string, 1)
	g.waiter = ch
	notify := g.notify
	g.mu.Unlock()

	// Outside the lock: the notified party may call Supply right away.
	if notify != nil {
		notify()
	}

	select {
	case secret := <-ch:
		return secret, nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.waiter == ch {
		g.waiter = nil
		return "", fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}

	// Supply won the race and already handed the value over.
	return <-ch, nil
}

// Supply records secret and releases a waiting Request. Calling it again
// before the value is consumed replaces the value.
func (g *Gate) Supply(secret string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.secret = secret
	g.supplied = true

	if g.waiter != nil {
		g.waiter <- secret
		g.waiter = nil
		g.pending = false
		return
	}

	g.pending = true
}

// Supplied reports whether Supply has been called since the gate was created
// or last reset.
func (g *Gate) Supplied() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.supplied
}

// Armed reports whether a Request is waiting.
func (g *Gate) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiter != nil
}

// Pending reports whether a supplied value is waiting to be consumed.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Reset forgets a pending value and clears the supplied flag. A waiting
// Request stays armed.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.secret = ""
	g.pending = false
	g.supplied = false
}
