package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MrWong99/hmmvoice/internal/observe"
	"github.com/MrWong99/hmmvoice/pkg/schema"
)

// Installer executes a [Plan]. It is stateless apart from its metrics and may
// be reused across runs.
type Installer struct {
	metrics *observe.Metrics
}

// Option configures an [Installer].
type Option func(*Installer)

// WithMetrics records install metrics on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(i *Installer) {
		if m != nil {
			i.metrics = m
		}
	}
}

// NewInstaller returns a ready-to-use [Installer].
func NewInstaller(opts ...Option) *Installer {
	i := &Installer{}
	for _, opt := range opts {
		opt(i)
	}
	if i.metrics == nil {
		i.metrics = observe.DefaultMetrics()
	}
	return i
}

// Install creates plan.DestDir if needed and copies every present file into
// it, in plan order. It stops at the first mandatory file that is missing or
// the first copy that fails; files copied up to that point stay in place.
//
// Presence is taken from the plan. A file that vanished after [Resolve]
// surfaces as a copy failure, never as a silently skipped role.
func (i *Installer) Install(ctx context.Context, plan *Plan) (*CopiedSet, error) {
	ctx, span := observe.StartSpan(ctx, "install.files")
	defer span.End()
	log := observe.Logger(ctx)

	if err := os.MkdirAll(plan.DestDir, 0o755); err != nil {
		return nil, &FileError{Dest: plan.DestDir, Kind: ErrCopyFailed, Err: err}
	}
	log.Info("installing voice files", "source_root", plan.SourceRoot, "dest", plan.DestDir)

	copied := newCopiedSet(len(plan.Items))
	for _, it := range plan.Items {
		if err := ctx.Err(); err != nil {
			return copied, fmt.Errorf("install: %w", err)
		}
		role := string(it.Entry.Role)

		if !it.Exists {
			switch {
			case it.Entry.Role == schema.Features:
				rec, err := i.installFallbackFeatures(ctx, plan, it)
				if err != nil {
					return copied, err
				}
				copied.add(rec)
			case it.Entry.Mandatory:
				i.metrics.RecordFile(ctx, role, observe.FileMissing)
				return copied, &FileError{Role: it.Entry.Role, Source: it.Source, Kind: ErrMissingMandatoryFile}
			default:
				log.Debug("optional file absent, skipping", "role", role, "source", it.Source)
				i.metrics.RecordFile(ctx, role, observe.FileAbsent)
				copied.add(Copied{Role: it.Entry.Role})
			}
			continue
		}

		if err := i.copy(ctx, it.Entry.Role, it.Source, it.Dest); err != nil {
			return copied, err
		}
		i.metrics.RecordFile(ctx, role, observe.FileCopied)
		copied.add(Copied{
			Role:     it.Entry.Role,
			Present:  true,
			Source:   it.Source,
			BaseName: filepath.Base(it.Dest),
		})
	}
	return copied, nil
}

// installFallbackFeatures copies the first regular file, in lexical order,
// from the fallback directory in place of the missing example features file.
func (i *Installer) installFallbackFeatures(ctx context.Context, plan *Plan, it Item) (Copied, error) {
	log := observe.Logger(ctx)
	src, err := firstRegularFile(plan.FallbackDir)
	if err != nil {
		i.metrics.RecordFile(ctx, string(it.Entry.Role), observe.FileMissing)
		return Copied{}, &FileError{Role: it.Entry.Role, Source: it.Source, Kind: ErrMissingExampleFeatures, Err: err}
	}

	base := filepath.Base(src)
	dest := filepath.Join(plan.DestDir, base)
	if other, dup := plan.owner(base, it.Entry.Role); dup {
		i.metrics.RecordFile(ctx, string(it.Entry.Role), observe.FileFailed)
		return Copied{}, duplicateError(it.Entry.Role, other, src, dest)
	}
	log.Info("example features file not found, using fallback",
		"declared", it.Source,
		"fallback", src,
	)
	if err := i.copy(ctx, it.Entry.Role, src, dest); err != nil {
		return Copied{}, err
	}
	i.metrics.RecordFile(ctx, string(it.Entry.Role), observe.FileFallback)
	return Copied{
		Role:        it.Entry.Role,
		Present:     true,
		Source:      src,
		BaseName:    base,
		Substituted: true,
	}, nil
}

func (i *Installer) copy(ctx context.Context, role schema.Role, src, dest string) error {
	observe.Logger(ctx).Info("copying", "role", string(role), "from", src, "to", dest)
	n, err := copyFile(src, dest)
	if err != nil {
		i.metrics.RecordFile(ctx, string(role), observe.FileFailed)
		return &FileError{Role: role, Source: src, Dest: dest, Kind: ErrCopyFailed, Err: err}
	}
	i.metrics.RecordBytes(ctx, n)
	return nil
}

// copyFile writes the contents of src to dest, truncating dest if it exists.
func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

var errNoCandidate = errors.New("no regular file in fallback directory")

// firstRegularFile returns the lexically first regular file directly inside
// dir. os.ReadDir sorts entries by name.
func firstRegularFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w %q: directory does not exist", errNoCandidate, dir)
		}
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		ok, err := isRegularFile(p)
		if err != nil {
			return "", err
		}
		if ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q", errNoCandidate, dir)
}
