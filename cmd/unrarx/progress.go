package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/paulbellamy/ratecounter"
	"golang.org/x/time/rate"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/relay"
)

const progressInterval = 250 * time.Millisecond

// progress prints a throttled one-line status to a terminal. Its methods are
// called from the extraction goroutine only.
type progress struct {
	out     io.Writer
	limiter *rate.Limiter
	speed   *ratecounter.RateCounter
	start   time.Time

	bytes   int64
	files   int
	failed  int
	current string
	printed bool
}

func newProgress(out io.Writer) *progress {
	return &progress{
		out:     out,
		limiter: rate.NewLimiter(rate.Every(progressInterval), 1),
		speed:   ratecounter.NewRateCounter(time.Second),
		start:   time.Now(),
	}
}

// listener returns the relay callbacks. onPassword is called for challenges;
// data upcalls cancel the extraction once ctx is done.
func (p *progress) listener(ctx context.Context, onPassword func()) relay.Funcs {
	return relay.Funcs{
		FileProcessed:    p.file,
		PasswordRequired: onPassword,
		DataProcessed: func(n int) int {
			if ctx.Err() != nil {
				return relay.Cancel
			}
			return p.data(n)
		},
	}
}

func (p *progress) data(n int) int {
	p.bytes += int64(n)
	p.speed.Incr(int64(n))
	if p.limiter.Allow() {
		p.print()
	}
	return relay.Continue
}

func (p *progress) file(id int, name string) {
	p.current = name
	if code := engine.ParseCode(id); !code.Completed() {
		p.failed++
		p.clear()
		lg.Warnw("Entry failed.", "name", name, "code", code)
		return
	}
	p.files++
}

func (p *progress) line() string {
	return fmt.Sprintf("%s  %s/s  %d files  %s",
		humanize.IBytes(uint64(p.bytes)),
		humanize.IBytes(uint64(p.speed.Rate())),
		p.files,
		p.current,
	)
}

func (p *progress) print() {
	fmt.Fprintf(p.out, "\r\033[K%s", p.line())
	p.printed = true
}

// clear erases the status line before other output.
func (p *progress) clear() {
	if p.printed {
		fmt.Fprint(p.out, "\r\033[K")
		p.printed = false
	}
}

// summary is printed once the extraction returned.
func (p *progress) summary() string {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	s := fmt.Sprintf("%d files, %s in %s", p.files, humanize.IBytes(uint64(p.bytes)), elapsed)
	if p.failed > 0 {
		s += fmt.Sprintf(", %d failed", p.failed)
	}
	return s
}
