package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/MrWong99/hmmvoice/internal/observe"
	"github.com/MrWong99/hmmvoice/pkg/layout"
)

// DefaultCommand is the archiving command used when none is configured.
const DefaultCommand = "zip"

// ErrArchiveFailed is returned when the archive command exits non-zero or
// cannot be launched.
var ErrArchiveFailed = errors.New("archive: command failed")

// Error describes a failed archive command.
type Error struct {
	CmdLine string

	// ExitCode is the command's exit status. It is -1 if the command never
	// ran or was terminated by a signal.
	ExitCode int

	// Stderr holds the command's standard error output, if any.
	Stderr string

	// Err is the launch error, nil if the command started.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive: launch %q: %v", e.CmdLine, e.Err)
	}
	var msg string
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("archive: %q terminated by signal", e.CmdLine)
	} else {
		msg = fmt.Sprintf("archive: %q exited with status %d", e.CmdLine, e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap makes both [ErrArchiveFailed] and the launch error reachable.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrArchiveFailed, e.Err}
	}
	return []error{ErrArchiveFailed}
}

// Archiver zips an installed voice and its config.
type Archiver struct {
	// Runner executes the command line. Default: [ShellRunner].
	Runner Runner

	// Command is the archiving program and any leading flags, inserted
	// verbatim into the command line. Default: [DefaultCommand].
	Command string

	metrics *observe.Metrics
}

// New returns an Archiver. A nil runner selects a [ShellRunner] and an empty
// command selects [DefaultCommand].
func New(runner Runner, command string, m *observe.Metrics) *Archiver {
	if runner == nil {
		runner = ShellRunner{}
	}
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Archiver{Runner: runner, Command: command, metrics: m}
}

// CommandLine returns the shell command that archives the voice described by
// l. It changes into the installation root and adds the config file and every
// file of the voice directory to <locale>-<voice>.zip.
func (a *Archiver) CommandLine(l layout.Layout) string {
	return fmt.Sprintf("cd %s; %s %s %s %s/*",
		shellescape.Quote(l.Root),
		a.Command,
		shellescape.Quote(l.ArchiveName()),
		shellescape.Quote(l.ConfigRel()),
		shellescape.Quote(l.VoiceDirRel()),
	)
}

// Archive runs the archive command for l and returns the path of the archive
// it produced.
func (a *Archiver) Archive(ctx context.Context, l layout.Layout) (string, error) {
	ctx, span := observe.StartSpan(ctx, "archive.run")
	defer span.End()
	log := observe.Logger(ctx)

	cmdLine := a.CommandLine(l)
	log.Info("creating voice archive", "cmd", cmdLine)

	res, err := a.Runner.Run(ctx, cmdLine)
	if err != nil {
		a.metrics.RecordArchiveExit(ctx, "launch_error")
		span.RecordError(err)
		return "", &Error{CmdLine: cmdLine, ExitCode: -1, Err: err}
	}
	if res.ExitCode != 0 {
		a.metrics.RecordArchiveExit(ctx, "nonzero")
		aerr := &Error{CmdLine: cmdLine, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
		span.RecordError(aerr)
		return "", aerr
	}
	a.metrics.RecordArchiveExit(ctx, "ok")

	out := filepath.Join(l.Root, l.ArchiveName())
	log.Info("voice archive created", "path", out)
	return out, nil
}
