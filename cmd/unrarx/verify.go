package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/tragoedia0722/unrar/pkg/validator"
)

func cmdVerify(ctx context.Context, args map[string]interface{}) int {
	j, ok := openJournal(args)
	if !ok {
		return 1
	}
	defer j.Close()

	job, err := j.Find(ctx, args["<job>"].(string))
	if err != nil {
		lg.Errorw("Unknown job.", "job", args["<job>"], "err", err)
		return 1
	}
	m, err := j.Manifest(ctx, job.ID)
	if err != nil {
		lg.Errorw("No manifest for job.", "id", job.ID, "err", err)
		return 1
	}

	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)
	v := validator.NewValidator(job.Dest).WithProgress(func(completed, total int64, file string) {
		if limiter.Allow() {
			fmt.Fprintf(os.Stderr, "\r\033[K%s / %s  %s",
				humanize.IBytes(uint64(completed)), humanize.IBytes(uint64(total)), file)
		}
	})

	result, err := v.Validate(ctx, m)
	fmt.Fprint(os.Stderr, "\r\033[K")
	if err != nil {
		lg.Errorw("Verify failed.", "dest", job.Dest, "err", err)
		return 1
	}

	printResult(os.Stdout, job.Dest, result)
	if !result.IsComplete {
		return 1
	}
	return 0
}

func printResult(w io.Writer, dest string, r *validator.Result) {
	for _, p := range r.Missing {
		fmt.Fprintf(w, "missing   %s\n", p)
	}
	for _, p := range r.Mismatched {
		fmt.Fprintf(w, "modified  %s\n", p)
	}
	for _, p := range r.Extra {
		fmt.Fprintf(w, "extra     %s\n", p)
	}

	status := "ok"
	if !r.IsComplete {
		status = "incomplete"
	}
	fmt.Fprintf(w, "%s: %s, %s of %s verified\n", dest, status,
		humanize.IBytes(uint64(r.VerifiedSize)), humanize.IBytes(uint64(r.TotalSize)))
}
