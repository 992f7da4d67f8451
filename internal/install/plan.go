// Package install copies the model files of a trained HMM voice into the
// voice directory of an installation root.
//
// Installation happens in two steps. [Resolve] turns a [schema.Schema] and a
// source root into a [Plan], checking once whether each file exists. The
// [Installer] then executes the plan and reports a [CopiedSet], which is the
// only presence information the config synthesiser is allowed to use.
//
// A failed installation leaves whatever was copied before the failure in the
// destination directory. Callers that need all-or-nothing semantics should
// install into a staging directory and rename it afterwards.
package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/MrWong99/hmmvoice/pkg/schema"
)

// Item is one resolved schema entry.
type Item struct {
	Entry schema.Entry

	// Source is the file location below the source root.
	Source string

	// Dest is DestDir/<base name of Source>.
	Dest string

	// Exists reports whether Source was a regular file when the plan was
	// resolved.
	Exists bool
}

// Plan is the resolved set of files to install. It is computed once per run.
type Plan struct {
	SourceRoot string
	DestDir    string

	// FallbackDir is searched for an example features file when the
	// declared one does not exist.
	FallbackDir string

	Items []Item
}

// PlanOption configures [Resolve].
type PlanOption func(*Plan)

// WithFallbackDir overrides the directory searched for a substitute example
// features file. A relative dir is resolved against the source root.
func WithFallbackDir(dir string) PlanOption {
	return func(p *Plan) {
		if dir != "" {
			p.FallbackDir = dir
		}
	}
}

// Resolve stats every file of s below sourceRoot and returns the plan for
// installing them into destDir. Two roles whose files share a base name fail
// with [ErrDuplicateBaseName], since one copy would replace the other in the
// voice directory. Other than that only I/O errors besides "does not exist"
// fail resolution; missing mandatory files are reported by the installer.
func Resolve(s schema.Schema, sourceRoot, destDir string, opts ...PlanOption) (*Plan, error) {
	p := &Plan{
		SourceRoot:  sourceRoot,
		DestDir:     destDir,
		FallbackDir: schema.DefaultFallbackFeaturesDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	if !filepath.IsAbs(p.FallbackDir) {
		p.FallbackDir = filepath.Join(sourceRoot, filepath.FromSlash(p.FallbackDir))
	}

	owners := make(map[string]schema.Role, len(s.Roles()))
	for _, e := range s.Entries() {
		src := filepath.Join(sourceRoot, filepath.FromSlash(e.Path))
		dest := filepath.Join(destDir, e.BaseName())
		if other, dup := owners[e.BaseName()]; dup {
			return nil, duplicateError(e.Role, other, src, dest)
		}
		owners[e.BaseName()] = e.Role

		exists, err := isRegularFile(src)
		if err != nil {
			return nil, fmt.Errorf("install: resolve role %s: %w", e.Role, err)
		}
		p.Items = append(p.Items, Item{
			Entry:  e,
			Source: src,
			Dest:   dest,
			Exists: exists,
		})
	}
	return p, nil
}

// Item returns the plan item for r.
func (p *Plan) Item(r schema.Role) (Item, bool) {
	for _, it := range p.Items {
		if it.Entry.Role == r {
			return it, true
		}
	}
	return Item{}, false
}

// owner returns the role other than r whose file is installed as base.
func (p *Plan) owner(base string, r schema.Role) (schema.Role, bool) {
	for _, it := range p.Items {
		if it.Entry.Role != r && filepath.Base(it.Dest) == base {
			return it.Entry.Role, true
		}
	}
	return "", false
}

func duplicateError(r, other schema.Role, src, dest string) error {
	return &FileError{
		Role:   r,
		Source: src,
		Dest:   dest,
		Kind:   ErrDuplicateBaseName,
		Err:    fmt.Errorf("also the destination of role %s", other),
	}
}

func isRegularFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
