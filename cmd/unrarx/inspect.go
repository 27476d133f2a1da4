package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/session"
)

func cmdInspect(ctx context.Context, args map[string]interface{}) int {
	eng, err := newEngine(engineConfigFromArgs(args))
	if err != nil {
		lg.Errorw("Failed to create engine.", "err", err)
		return 1
	}

	archive := args["<archive>"].(string)
	s := session.New(engine.NewRuntime(eng), session.WithLogger(lg.With("archive", archive)))

	code, err := s.Inspect(ctx, archive)
	if err != nil {
		lg.Errorw("Inspect failed.", "err", err)
		return 1
	}
	if !code.Completed() {
		lg.Errorw("Inspect failed.", "code", code)
		return int(code)
	}

	printMetadata(os.Stdout, archive, s.Metadata())
	return 0
}

func printMetadata(w io.Writer, archive string, m engine.Metadata) {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	fmt.Fprintf(w, "archive:         %s\n", archive)
	fmt.Fprintf(w, "encrypted:       %s\n", yesNo(m.Encrypted))
	fmt.Fprintf(w, "solid:           %s\n", yesNo(m.Solid))
	fmt.Fprintf(w, "volume:          %s\n", yesNo(m.Volume))
	fmt.Fprintf(w, "first volume:    %s\n", yesNo(m.FirstVolume))
	fmt.Fprintf(w, "locked:          %s\n", yesNo(m.Locked))
	fmt.Fprintf(w, "signed:          %s\n", yesNo(m.Signed))
	fmt.Fprintf(w, "recovery record: %s\n", yesNo(m.RecoveryRecord))
	fmt.Fprintf(w, "items:           %d\n", m.Items)
	if len(m.Volumes) > 0 {
		fmt.Fprintf(w, "volumes:         %s\n", strings.Join(m.Volumes, ", "))
	}
	if m.HasComment {
		fmt.Fprintf(w, "comment:\n%s\n", m.Comment)
	}
}
