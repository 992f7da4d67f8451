// Package schema defines the roles that make up an installable HMM voice
// package: which trained model files exist, where the voice-building tools put
// them by default, and whether the voice can be installed without them.
//
// A [Schema] is an immutable value. [Defaults] builds the stock table and
// [Schema.WithOverrides] derives a new table with some paths replaced; neither
// touches the filesystem.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Role names a logical slot in a voice package. The string value is the
// property suffix used in the generated voice configuration (e.g. "Ftd" for
// voice.<name>.Ftd).
type Role string

// Tree files.
const (
	TreeDur Role = "Ftd"
	TreeLf0 Role = "Ftf"
	TreeMcp Role = "Ftm"
	TreeStr Role = "Fts"
	TreeMag Role = "Fta"
)

// Means and variances PDF files.
const (
	PdfDur Role = "Fmd"
	PdfLf0 Role = "Fmf"
	PdfMcp Role = "Fmm"
	PdfStr Role = "Fms"
	PdfMag Role = "Fma"
)

// Global variance PDF files.
const (
	GVLf0 Role = "Fgvf"
	GVMcp Role = "Fgvm"
	GVStr Role = "Fgvs"
	GVMag Role = "Fgva"
)

// Remaining files.
const (
	// MixFilters holds the bandpass filter taps used for mixed excitation.
	MixFilters Role = "Fif"

	// Features is an example context-feature file used to smoke-test the
	// synthesiser. When absent, the installer substitutes a file from the
	// fallback features directory.
	Features Role = "FeaFile"
)

// DefaultFallbackFeaturesDir is where the voice-building tools write the
// context-feature files generated for testing, relative to the source root.
const DefaultFallbackFeaturesDir = "phonefeatures/gen"

// Entry describes one role: its default location relative to the voice
// building root and whether installation fails without it.
type Entry struct {
	Role        Role
	Path        string
	Mandatory   bool
	Description string
}

// BaseName returns the last slash-separated element of the entry's path. Paths
// in a schema are always slash-separated regardless of the host OS.
func (e Entry) BaseName() string {
	return BaseName(e.Path)
}

// BaseName returns the portion of p after the final '/'.
func BaseName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

// Schema is an ordered, immutable set of role entries. The order is the order
// in which the installer processes roles. The zero value is empty; use
// [Defaults].
type Schema struct {
	order   []Role
	entries map[Role]Entry
}

// defaultEntries is listed in install order.
var defaultEntries = []Entry{
	{TreeDur, "voices/qst001/ver1/tree-dur.inf", true, "durations tree file"},
	{TreeLf0, "voices/qst001/ver1/tree-lf0.inf", true, "log F0 tree file"},
	{TreeMcp, "voices/qst001/ver1/tree-mgc.inf", true, "Mel-cepstral (or Mel-generalized cepstral mgc) tree file"},
	{TreeStr, "voices/qst001/ver1/tree-str.inf", false, "Bandpass voicing strengths tree file (optional: used for mixed excitation)"},
	{TreeMag, "voices/qst001/ver1/tree-mag.inf", false, "Fourier magnitudes tree file (optional: used for mixed excitation)"},
	{PdfDur, "voices/qst001/ver1/dur.pdf", true, "Duration means and variances PDF file"},
	{PdfLf0, "voices/qst001/ver1/lf0.pdf", true, "Log F0 means and variances PDF file"},
	{PdfMcp, "voices/qst001/ver1/mgc.pdf", true, "Mel-cepstral (or Mel-generalized cepstral mgc) means and variances PDF file"},
	{PdfStr, "voices/qst001/ver1/str.pdf", false, "Bandpass voicing strengths means and variances PDF file (optional: used for mixed excitation)"},
	{PdfMag, "voices/qst001/ver1/mag.pdf", false, "Fourier magnitudes means and variances PDF file (optional: used for mixed excitation)"},
	{GVMcp, "data/gv/gv-mgc-littend.pdf", false, "Global variance for Mel-cepstral (or Mel-generalized cepstral mgc) mean and (diagonal) variance PDF file"},
	{GVLf0, "data/gv/gv-lf0-littend.pdf", false, "Global variance for log F0 mean and (diagonal) variance PDF file"},
	{GVStr, "data/gv/gv-str-littend.pdf", false, "Global variance for bandpass voicing strengths mean and (diagonal) variance PDF file (optional: used for mixed excitation)"},
	{GVMag, "data/gv/gv-mag-littend.pdf", false, "Global variance for Fourier magnitudes mean and (diagonal) variance PDF file (optional: used for mixed excitation)"},
	{MixFilters, "data/filters/mix_excitation_filters.txt", true, "Filter taps of bandpass filters for mixed excitation"},
	{Features, "phonefeatures/cmu_us_arctic_slt_a0001.pfeats", true, "Example context features file for testing the synthesiser; if it does not exist a file from " + DefaultFallbackFeaturesDir + " is used"},
}

// Defaults returns the stock schema. Each call returns a fresh value.
func Defaults() Schema {
	s := Schema{
		order:   make([]Role, 0, len(defaultEntries)),
		entries: make(map[Role]Entry, len(defaultEntries)),
	}
	for _, e := range defaultEntries {
		s.order = append(s.order, e.Role)
		s.entries[e.Role] = e
	}
	return s
}

// Roles returns the roles in install order.
func (s Schema) Roles() []Role {
	return slices.Clone(s.order)
}

// Entries returns all entries in install order.
func (s Schema) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, r := range s.order {
		out = append(out, s.entries[r])
	}
	return out
}

// Lookup returns the entry for r and whether it exists.
func (s Schema) Lookup(r Role) (Entry, bool) {
	e, ok := s.entries[r]
	return e, ok
}

// Entry returns the entry for r. It panics if r is not part of the schema:
// every role referenced by the installer or the config synthesiser must be
// declared, so a miss is a programming error.
func (s Schema) Entry(r Role) Entry {
	e, ok := s.entries[r]
	if !ok {
		panic(fmt.Sprintf("schema: unknown role %q", r))
	}
	return e
}

// WithOverrides returns a copy of s in which the paths of the given roles are
// replaced. Keys are role names (e.g. "Ftd"). Unknown roles and empty paths
// are rejected; s itself is never modified.
func (s Schema) WithOverrides(paths map[string]string) (Schema, error) {
	out := Schema{
		order:   slices.Clone(s.order),
		entries: make(map[Role]Entry, len(s.entries)),
	}
	for r, e := range s.entries {
		out.entries[r] = e
	}

	// Sorted for a stable error message.
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		e, ok := out.entries[Role(k)]
		if !ok {
			return Schema{}, fmt.Errorf("schema: unknown role %q", k)
		}
		p := strings.TrimSpace(paths[k])
		if p == "" {
			return Schema{}, fmt.Errorf("schema: role %q: path must not be empty", k)
		}
		e.Path = p
		out.entries[e.Role] = e
	}
	return out, nil
}
