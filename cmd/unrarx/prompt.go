package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errNoPassword means the user gave no password. The extraction then fails
// with a missing-password result.
var errNoPassword = errors.New("no password given")

// prompter asks for an archive password.
type prompter func(ctx context.Context, archive string) (string, error)

var stdin = bufio.NewReader(os.Stdin)

// terminalPrompt reads a password without echo when stdin is a terminal and
// a plain line otherwise. The read itself cannot be interrupted, so it runs in
// its own goroutine and is abandoned when ctx ends.
func terminalPrompt(ctx context.Context, archive string) (string, error) {
	type answer struct {
		secret string
		err    error
	}
	ch := make(chan answer, 1)

	go func() {
		secret, err := readPassword(os.Stderr, fmt.Sprintf("Password for %s: ", archive))
		ch <- answer{secret, err}
	}()

	select {
	case a := <-ch:
		return a.secret, a.err
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

func readPassword(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	return readLine(stdin)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", errNoPassword
		}
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
