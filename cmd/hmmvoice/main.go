// Command hmmvoice installs a trained HMM voice into a synthesis server
// installation root, writes its voice config and optionally packages it as a
// zip archive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/MrWong99/hmmvoice/internal/archive"
	"github.com/MrWong99/hmmvoice/internal/config"
	"github.com/MrWong99/hmmvoice/internal/observe"
	"github.com/MrWong99/hmmvoice/internal/packager"
	"github.com/MrWong99/hmmvoice/pkg/schema"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	fs := flag.NewFlagSet("hmmvoice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "voice.yaml", "path to the YAML voice configuration file")
	sourceRoot := fs.String("source", "", "voice-building directory (overrides paths.source_root)")
	installRoot := fs.String("dest", "", "installation root (overrides paths.install_root)")
	zip := fs.Bool("zip", false, "package the installed voice into <locale>-<voice>.zip")
	zipCommand := fs.String("zip-command", "", "archiving command (overrides archive.command)")
	listRoles := fs.Bool("list-roles", false, "print the voice file roles and their default paths, then exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "hmmvoice: unexpected arguments: %q\n", fs.Args())
		fs.Usage()
		return exitUsage
	}

	if *listRoles {
		if err := printRoles(stdout, schema.Defaults()); err != nil {
			fmt.Fprintf(stderr, "hmmvoice: %v\n", err)
			return exitError
		}
		return exitOK
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath,
		config.WithSourceRoot(*sourceRoot),
		config.WithInstallRoot(*installRoot),
		config.WithArchive(*zip),
		config.WithArchiveCommand(*zipCommand),
	)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(stderr, "hmmvoice: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(stderr, "hmmvoice: %v\n", err)
		}
		return exitError
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(stderr, cfg.LogLevel))
	slog.Info("hmmvoice starting",
		"version", version,
		"config", *configPath,
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Package ───────────────────────────────────────────────────────────────
	opts, err := packagerOptions(cfg)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		return exitError
	}
	p := packager.New(
		packager.WithMetrics(tel.Metrics),
		packager.WithRunner(archive.ShellRunner{Shell: cfg.Archive.Shell}),
	)
	rep, runErr := p.Run(ctx, opts)

	if cfg.Telemetry.MetricsFile != "" {
		if err := tel.WriteTextfile(cfg.Telemetry.MetricsFile); err != nil {
			slog.Warn("failed to write metrics file", "err", err)
		}
	}

	if runErr != nil {
		var se *packager.StageError
		if errors.As(runErr, &se) {
			fmt.Fprintf(stderr, "hmmvoice: %s failed: %v\n", se.Stage, se.Err)
		} else {
			fmt.Fprintf(stderr, "hmmvoice: %v\n", runErr)
		}
		return exitError
	}

	printSummary(stdout, rep)
	return exitOK
}

// packagerOptions converts a validated config into a packaging request.
func packagerOptions(cfg *config.Config) (packager.Options, error) {
	props, err := cfg.Properties()
	if err != nil {
		return packager.Options{}, err
	}
	s, err := cfg.Schema()
	if err != nil {
		return packager.Options{}, err
	}
	return packager.Options{
		SourceRoot:  cfg.Paths.SourceRoot,
		InstallRoot: cfg.Paths.InstallRoot,
		FallbackDir: cfg.Paths.FallbackFeaturesDir,
		Properties:  props,
		Schema:      s,
		Archive:     cfg.Archive.Enabled,
		ZipCommand:  cfg.Archive.Command,
	}, nil
}

// ── Output ────────────────────────────────────────────────────────────────────

func printRoles(w io.Writer, s schema.Schema) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tMANDATORY\tDEFAULT PATH\tDESCRIPTION")
	for _, e := range s.Entries() {
		mandatory := "no"
		if e.Mandatory {
			mandatory = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Role, mandatory, e.Path, e.Description)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, rep *packager.Report) {
	installed := 0
	for _, c := range rep.Copied.Records() {
		if c.Present {
			installed++
		}
	}
	fmt.Fprintf(w, "voice directory : %s (%d files)\n", rep.VoiceDir, installed)
	fmt.Fprintf(w, "voice config    : %s\n", rep.ConfigPath)
	if rep.ArchivePath != "" {
		fmt.Fprintf(w, "archive         : %s\n", rep.ArchivePath)
	}
	fmt.Fprintf(w, "run id          : %s\n", rep.RunID)
	if rep.TraceID != "" {
		fmt.Fprintf(w, "trace id        : %s\n", rep.TraceID)
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
