package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/dustin/go-humanize"
	logging "github.com/ipfs/go-log/v2"
)

// `xVersion` is injected at link time.
var (
	xVersion = "dev"
	version  = fmt.Sprintf("unrarx-%s", xVersion)
)

var lg = logging.Logger("unrar/cli")

// `qqBackticks()` translates double single quote to backtick.
func qqBackticks(s string) string {
	return strings.Replace(s, "''", "`", -1)
}

var usage = qqBackticks(strings.TrimSpace(`
Usage:
  unrarx [-v] [--engine=<name>] inspect <archive>
  unrarx [-v] [--engine=<name>] extract [--password=<pw>] [--dest=<dir>] [--overwrite] [--limit=<bandwidth>] [--journal=<dir>] <archive>
  unrarx [-v] jobs --journal=<dir>
  unrarx [-v] forget --journal=<dir> <job>
  unrarx [-v] verify --journal=<dir> <job>

Options:
  -v                   Log debug messages to stderr.
  --engine=<name>      [default: go]
                       Decompression engine: ''go'' or ''native''.  ''native''
                       needs a build with ''-tags unrar'' and libunrar.
  --password=<pw>      Archive password.  Without it, ''extract'' asks on the
                       terminal when the archive turns out to be encrypted.
  --dest=<dir>         Extraction directory.  The default is a new directory
                       next to the archive, named after it.
  --overwrite          Replace files that already exist below ''--dest''.
  --limit=<bandwidth>  Bandwidth limit for writing extracted data, in bytes
                       per second.  Suffixes like ''k'', ''M'', ''MiB'' are
                       accepted.
  --journal=<dir>      Journal directory.  ''extract'' records the job and the
                       manifest of the extracted files there.

''unrarx inspect'' prints the archive flags without extracting.

''unrarx extract'' extracts ''<archive>''.  For multi-volume archives any
volume may be given; extraction starts at the first one.  Exit code 0 means
success, 1 a usage or I/O error, and any other value is the engine result
code, for example 22 for a missing password and 24 for a wrong one.

''unrarx jobs'' lists the jobs in the journal.  ''unrarx forget'' removes one.
''<job>'' may be any unique prefix of a job id.

''unrarx verify'' rehashes the destination of a finished job and reports
missing, modified and extra files.
`))

func main() {
	args := argparse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var code int
	switch {
	case args["inspect"].(bool):
		code = cmdInspect(ctx, args)
	case args["extract"].(bool):
		code = cmdExtract(ctx, args)
	case args["jobs"].(bool):
		code = cmdJobs(ctx, args)
	case args["forget"].(bool):
		code = cmdForget(ctx, args)
	case args["verify"].(bool):
		code = cmdVerify(ctx, args)
	default:
		panic("unhandled args")
	}

	stop()
	os.Exit(code)
}

func argparse() map[string]interface{} {
	const autoHelp = true
	const noOptionFirst = false
	args, err := docopt.Parse(
		usage, nil, autoHelp, version, noOptionFirst,
	)
	if err != nil {
		lg.Fatalw("docopt failed.", "err", err)
	}

	level := "warn"
	if args["-v"].(bool) {
		level = "debug"
	}
	if err := logging.SetLogLevelRegex("unrar/.*", level); err != nil {
		lg.Fatalw("Failed to set log level.", "err", err)
	}

	if arg, ok := args["--limit"].(string); ok {
		v, err := parseBandwidth(arg)
		if err != nil {
			lg.Fatalw("Invalid --limit.", "err", err)
		}
		args["--limit"] = v
	}

	return args
}

// parseBandwidth accepts humanized byte counts such as "512k" or "10MiB".
func parseBandwidth(s string) (int64, error) {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if v == 0 || v > 1<<40 {
		return 0, fmt.Errorf("bandwidth %q out of range", s)
	}
	return int64(v), nil
}

func optString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
