package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/tragoedia0722/unrar/pkg/journal"
)

func openJournal(args map[string]interface{}) (*journal.Journal, bool) {
	j, err := journal.Open(args["--journal"].(string))
	if err != nil {
		lg.Errorw("Failed to open journal.", "err", err)
		return nil, false
	}
	return j, true
}

func cmdJobs(ctx context.Context, args map[string]interface{}) int {
	j, ok := openJournal(args)
	if !ok {
		return 1
	}
	defer j.Close()

	jobs, err := j.List(ctx)
	if err != nil {
		lg.Errorw("Failed to list jobs.", "err", err)
		return 1
	}
	printJobs(os.Stdout, jobs)

	if usage, err := j.Usage(ctx); err == nil {
		fmt.Fprintf(os.Stderr, "%d jobs, journal uses %s\n", len(jobs), humanize.IBytes(usage))
	}
	return 0
}

func printJobs(w io.Writer, jobs []*journal.Job) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tRESULT\tSTARTED\tSIZE\tFILES\tARCHIVE")
	for _, job := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(job.ID),
			job.State,
			job.Result(),
			humanize.Time(job.Started),
			humanize.IBytes(uint64(job.Size)),
			job.Files,
			job.Archive,
		)
	}
	_ = tw.Flush()
}

// shortID abbreviates a job id for listings. Records written by hand or by
// older versions may carry shorter ids.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func cmdForget(ctx context.Context, args map[string]interface{}) int {
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
	if err := j.Delete(ctx, job.ID); err != nil {
		lg.Errorw("Failed to delete job.", "id", job.ID, "err", err)
		return 1
	}
	fmt.Println(job.ID)
	return 0
}
