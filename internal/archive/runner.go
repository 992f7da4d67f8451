// Package archive bundles an installed voice into a distributable archive by
// running an external archiving command (zip by default) over the voice
// directory and its config file.
//
// Process execution sits behind the [Runner] interface so the packager can be
// exercised without spawning processes.
package archive

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/hmmvoice/internal/observe"
)

// Result is the outcome of a command that was started.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes a shell command line and waits for it to exit.
//
// Implementations return a non-nil error only when the command could not be
// started or waited on; a command that ran and exited non-zero is reported
// through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, cmdLine string) (Result, error)
}

// ShellRunner runs command lines through a POSIX shell.
type ShellRunner struct {
	// Shell is the shell executable. Default: "/bin/sh".
	Shell string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Run implements [Runner]. The child's stdout and stderr are drained
// concurrently and logged line by line at debug level while the command runs.
// No timeout is applied beyond what ctx carries.
func (r ShellRunner) Run(ctx context.Context, cmdLine string) (Result, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", cmdLine)
	cmd.Dir = r.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("archive: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("archive: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("archive: start %q: %w", shell, err)
	}

	log := observe.Logger(ctx)
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error { return drain(stdout, &outBuf, log, "stdout") })
	g.Go(func() error { return drain(stderr, &errBuf, log, "stderr") })
	drainErr := g.Wait()

	res := Result{}
	waitErr := cmd.Wait()
	res.Stdout = outBuf.Bytes()
	res.Stderr = errBuf.Bytes()

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("archive: wait: %w", waitErr)
	}
	if drainErr != nil {
		return res, fmt.Errorf("archive: read output: %w", drainErr)
	}
	return res, nil
}

// drain copies r into buf, logging each line.
func drain(r io.Reader, buf *bytes.Buffer, log *slog.Logger, stream string) error {
	sc := bufio.NewScanner(io.TeeReader(r, buf))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		log.Debug("archive output", "stream", stream, "line", sc.Text())
	}
	if err := sc.Err(); err != nil {
		// Keep consuming so the child never blocks on a full pipe.
		_, _ = io.Copy(buf, r)
		return err
	}
	return nil
}
