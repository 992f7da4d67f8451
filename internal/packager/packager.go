// Package packager turns a directory of trained HMM model files into an
// installed voice: it copies the files into the voice directory, writes the
// voice config that references them and optionally zips both into a
// distributable archive.
//
// A run is install-then-report. Nothing is rolled back on failure; files
// copied before the failing step stay in place. Callers that need atomicity
// should package into a staging root and rename it afterwards.
package packager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/hmmvoice/internal/archive"
	"github.com/MrWong99/hmmvoice/internal/install"
	"github.com/MrWong99/hmmvoice/internal/observe"
	"github.com/MrWong99/hmmvoice/internal/voiceconf"
	"github.com/MrWong99/hmmvoice/pkg/layout"
	"github.com/MrWong99/hmmvoice/pkg/schema"
)

// Stage names a step of a packaging run.
type Stage string

// Packaging stages, in execution order.
const (
	StageResolve     Stage = "resolve"
	StageInstall     Stage = "install"
	StageSynthesize  Stage = "synthesize"
	StageWriteConfig Stage = "write-config"
	StageArchive     Stage = "archive"
)

// StageError reports which stage of a run failed. The underlying sentinel
// errors ([install.ErrMissingMandatoryFile], [voiceconf.ErrWriteFailed],
// [archive.ErrArchiveFailed], ...) stay reachable through [errors.Is].
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("packager: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrInvalidOptions is returned when [Options] lack a required field.
var ErrInvalidOptions = errors.New("packager: invalid options")

// Options describe one packaging run.
type Options struct {
	// SourceRoot is the voice-building directory holding the model files at
	// the schema's relative paths.
	SourceRoot string

	// InstallRoot is the installation root the voice is placed under.
	InstallRoot string

	// FallbackDir is searched for an example features file when the declared
	// one is missing. Relative paths resolve against SourceRoot. Empty selects
	// [schema.DefaultFallbackFeaturesDir].
	FallbackDir string

	Properties voiceconf.Properties

	// Schema lists the files to install. The zero value selects
	// [schema.Defaults].
	Schema schema.Schema

	// Archive requests the archive step.
	Archive bool

	// ZipCommand is the archiving program. Empty selects
	// [archive.DefaultCommand].
	ZipCommand string
}

// Report summarises a successful run.
type Report struct {
	RunID string

	// TraceID is the OTel trace of the run, empty when tracing is disabled.
	TraceID string

	VoiceDir    string
	ConfigPath  string
	ArchivePath string
	Copied      *install.CopiedSet
	Duration    time.Duration
}

// Packager runs packaging jobs. It holds no per-run state and may be reused.
type Packager struct {
	metrics   *observe.Metrics
	installer *install.Installer
	runner    archive.Runner
	now       func() time.Time
	newID     func() string
}

// Option configures a [Packager].
type Option func(*Packager)

// WithMetrics records metrics on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Packager) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithRunner executes the archive command through r instead of a
// [archive.ShellRunner].
func WithRunner(r archive.Runner) Option {
	return func(p *Packager) {
		if r != nil {
			p.runner = r
		}
	}
}

// New returns a ready-to-use [Packager].
func New(opts ...Option) *Packager {
	p := &Packager{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	if p.runner == nil {
		p.runner = archive.ShellRunner{}
	}
	p.installer = install.NewInstaller(install.WithMetrics(p.metrics))
	return p
}

// Run packages one voice.
//
// The sequence is: resolve the installation plan, install the files,
// synthesise the config from what was actually copied, write it to
// <InstallRoot>/conf/<locale>-<voice>.config and, if requested, archive the
// voice. The first failure stops the run and is returned as a *[StageError].
// No config is written when installation fails.
func (p *Packager) Run(ctx context.Context, opts Options) (rep *Report, err error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	runID := p.newID()
	ctx = observe.WithRunID(ctx, runID)
	ctx, span := observe.StartSpan(ctx, "packager.run")
	defer span.End()
	log := observe.Logger(ctx)
	start := p.now()

	defer func() {
		if err != nil {
			span.RecordError(err)
			p.metrics.RecordRun(ctx, "error")
			log.Error("voice packaging failed", "err", err)
			return
		}
		p.metrics.RecordRun(ctx, "ok")
	}()

	s := opts.Schema
	if len(s.Roles()) == 0 {
		s = schema.Defaults()
	}
	lay := layout.New(opts.InstallRoot, opts.Properties.Name, opts.Properties.Locale)
	log.Info("packaging voice",
		"voice", lay.Voice,
		"locale", lay.Locale,
		"source_root", opts.SourceRoot,
		"install_root", opts.InstallRoot,
	)

	fallback := opts.FallbackDir
	if fallback == "" {
		fallback = schema.DefaultFallbackFeaturesDir
	}

	var plan *install.Plan
	if err := p.stage(ctx, StageResolve, func(context.Context) error {
		var err error
		plan, err = install.Resolve(s, opts.SourceRoot, lay.VoiceDir(), install.WithFallbackDir(fallback))
		return err
	}); err != nil {
		return nil, err
	}

	var copied *install.CopiedSet
	if err := p.stage(ctx, StageInstall, func(ctx context.Context) error {
		var err error
		copied, err = p.installer.Install(ctx, plan)
		return err
	}); err != nil {
		return nil, err
	}

	var doc *voiceconf.Document
	if err := p.stage(ctx, StageSynthesize, func(context.Context) error {
		var err error
		doc, err = voiceconf.Synthesize(opts.Properties, copied)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, StageWriteConfig, func(ctx context.Context) error {
		if err := doc.WriteFile(lay.ConfigPath()); err != nil {
			return err
		}
		observe.Logger(ctx).Info("voice config written", "path", lay.ConfigPath())
		return nil
	}); err != nil {
		return nil, err
	}

	rep = &Report{
		RunID:      runID,
		TraceID:    observe.CorrelationID(ctx),
		VoiceDir:   lay.VoiceDir(),
		ConfigPath: lay.ConfigPath(),
		Copied:     copied,
	}

	if opts.Archive {
		a := archive.New(p.runner, opts.ZipCommand, p.metrics)
		if err := p.stage(ctx, StageArchive, func(ctx context.Context) error {
			var err error
			rep.ArchivePath, err = a.Archive(ctx, lay)
			return err
		}); err != nil {
			return nil, err
		}
	}

	rep.Duration = p.now().Sub(start)
	log.Info("voice packaged",
		"voice_dir", rep.VoiceDir,
		"config", rep.ConfigPath,
		"archive", rep.ArchivePath,
		"duration", rep.Duration,
	)
	return rep, nil
}

// stage runs fn inside a span, records its duration and wraps a failure in a
// *StageError.
func (p *Packager) stage(ctx context.Context, st Stage, fn func(context.Context) error) error {
	ctx, span := observe.StartSpan(ctx, "packager."+string(st))
	defer span.End()

	start := p.now()
	err := fn(ctx)
	p.metrics.RecordStage(ctx, string(st), p.now().Sub(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return &StageError{Stage: st, Err: err}
	}
	return nil
}

func validate(opts Options) error {
	var errs []error
	if opts.SourceRoot == "" {
		errs = append(errs, fmt.Errorf("%w: source root is required", ErrInvalidOptions))
	}
	if opts.InstallRoot == "" {
		errs = append(errs, fmt.Errorf("%w: install root is required", ErrInvalidOptions))
	}
	if opts.Properties.Name == "" {
		errs = append(errs, fmt.Errorf("%w: voice name is required", ErrInvalidOptions))
	}
	if opts.Properties.Locale == "" {
		errs = append(errs, fmt.Errorf("%w: locale is required", ErrInvalidOptions))
	}
	return errors.Join(errs...)
}
