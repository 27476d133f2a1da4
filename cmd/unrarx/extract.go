package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/sync/errgroup"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/helper"
	"github.com/tragoedia0722/unrar/pkg/journal"
	"github.com/tragoedia0722/unrar/pkg/manifest"
	"github.com/tragoedia0722/unrar/pkg/relay"
	"github.com/tragoedia0722/unrar/pkg/session"
)

// extractJob is one extract invocation. The session runs on a worker
// goroutine; a controller goroutine answers its password challenges.
type extractJob struct {
	archive     string
	dest        string
	password    string
	hasPassword bool

	rt      *engine.Runtime
	prompt  prompter
	out     io.Writer
	journal *journal.Journal
}

type extractResult struct {
	code     engine.Code
	state    session.State
	stats    relay.Stats
	jobID    string
	manifest *manifest.Manifest
	summary  string
}

func cmdExtract(ctx context.Context, args map[string]interface{}) int {
	archive, err := homedir.Expand(args["<archive>"].(string))
	if err != nil {
		lg.Errorw("Invalid archive path.", "err", err)
		return 1
	}

	dest := optString(args, "--dest")
	if dest == "" {
		dest, err = helper.UniqueDir(filepath.Dir(archive), helper.ArchiveBaseName(archive))
		if err != nil {
			lg.Errorw("Failed to choose a destination.", "err", err)
			return 1
		}
	}

	eng, err := newEngine(engineConfigFromArgs(args))
	if err != nil {
		lg.Errorw("Failed to create engine.", "err", err)
		return 1
	}

	x := &extractJob{
		archive: archive,
		dest:    dest,
		rt:      engine.NewRuntime(eng),
		prompt:  terminalPrompt,
		out:     os.Stderr,
	}
	if pw, ok := args["--password"].(string); ok {
		x.password, x.hasPassword = pw, true
	}

	if dir := optString(args, "--journal"); dir != "" {
		j, err := journal.Open(dir)
		if err != nil {
			lg.Errorw("Failed to open journal.", "err", err)
			return 1
		}
		defer j.Close()
		x.journal = j
	}

	res, err := x.run(ctx)
	if res != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", dest, res.summary)
		if res.jobID != "" {
			fmt.Println(res.jobID)
		}
	}
	return exitCode(res, err)
}

func (x *extractJob) run(ctx context.Context) (*extractResult, error) {
	res := &extractResult{}

	if x.journal != nil {
		id, err := x.journal.Begin(ctx, journal.Job{Archive: x.archive, Dest: x.dest})
		if err != nil {
			return nil, fmt.Errorf("begin job: %w", err)
		}
		res.jobID = id
	}

	prog := newProgress(x.out)
	challenges := make(chan struct{}, 1)
	opts := []session.Option{
		session.WithListener(prog.listener(ctx, func() {
			select {
			case challenges <- struct{}{}:
			default:
			}
		})),
		session.WithLogger(lg.With("archive", x.archive)),
	}
	if x.hasPassword {
		opts = append(opts, session.WithPassword(x.password))
	}
	s := session.New(x.rt, opts...)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		code, err := s.Extract(gctx, x.archive, x.dest)
		res.code = code
		return err
	})

	g.Go(func() error {
		for {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			case <-challenges:
				// The worker is parked in the password wait.
				prog.clear()
				secret, err := x.prompt(gctx, x.archive)
				if err != nil {
					return err
				}
				s.SetPassword(secret)
			}
		}
	})

	err := g.Wait()
	prog.clear()
	// The secret is not needed past this point.
	s.ClearPassword()

	res.state = s.State()
	res.stats = s.Stats()
	res.summary = prog.summary()
	if !res.code.Completed() {
		res.summary += fmt.Sprintf(" (%s)", res.code)
	}

	if x.journal != nil {
		// Record the outcome even when ctx was interrupted.
		rctx := context.WithoutCancel(ctx)
		if res.code.Completed() && err == nil {
			m, merr := manifest.Build(rctx, x.dest)
			if merr != nil {
				lg.Warnw("Failed to build manifest.", "dest", x.dest, "err", merr)
			}
			res.manifest = m
		}
		if ferr := x.journal.Finish(rctx, res.jobID, res.code, res.state, res.manifest); ferr != nil {
			lg.Errorw("Failed to record job.", "id", res.jobID, "err", ferr)
		}
	}

	return res, err
}

func exitCode(res *extractResult, err error) int {
	switch {
	case res == nil:
		lg.Errorw("Extraction failed.", "err", err)
		return 1
	case !res.code.Completed():
		if err != nil && !errors.Is(err, errNoPassword) {
			lg.Warnw("Extraction failed.", "code", res.code, "err", err)
		}
		return int(res.code)
	case err != nil:
		lg.Errorw("Extraction failed.", "err", err)
		return 1
	default:
		return 0
	}
}
