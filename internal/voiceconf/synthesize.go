package voiceconf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrWong99/hmmvoice/internal/install"
	"github.com/MrWong99/hmmvoice/pkg/layout"
	"github.com/MrWong99/hmmvoice/pkg/schema"
)

// ErrInconsistent reports that the installation record cannot back the
// config: a mandatory role was not copied, or a copied role has no file name.
// It indicates a bug upstream, not a user error.
var ErrInconsistent = errors.New("voiceconf: installation record inconsistent")

// Names of the components a voice declares and depends on.
const (
	baseComponent = "marybase"
	hmmComponent  = "hmm"
	hmmVoiceGroup = "hmm-voice"
)

const moduleBanner = `####################################################################
####################### Module settings  ###########################
####################################################################
# For keys ending in ".list", values will be appended across config files,
# so that .list keys can occur in several config files.
# For all other keys, values will be copied to the global config, so
# keys should be unique across config files.`

const trainingParamsComment = `# HMM Voice-specific parameters
# parameters used during models training
# MGC: stage=gamma=0 alpha=0.42 linear gain (default)
# LSP: gamma>0
#          LSP: gamma=1 alpha=0.0  linear gain/log gain
#      Mel-LSP: gamma=1 alpha=0.42 log gain
#      MGC-LSP: gamma=3 alpha=0.42 log gain`

const gvComment = `# Information about Global Mean and Variance PDFs
# By default GV is not used for generating strengths and Fourier magnitudes,
# although the gv pdf for these are generated during training.
# Uncomment the lines corresponding to gv-str and gv-mag for using them.`

const extProsodyComment = `# Information for using external prosody, if set to true it will use the MARY targetfeatures:
# ContinuousFeatureProcessors
#  unit_duration float
#  unit_logf0 float
#  unit_logf0delta float`

const filterBankComment = `# Filter taps of bandpass filters for mixed excitation
# File format: for example if we have 5 filters each with 48 taps
# then the taps are in a vector
# tap[1][1]
# ...
# tap[1][48]
# tap[2][1]
# ...
# tap[2][48]
# ...
# tap[5][1]
# ...
# tap[5][48]`

// synth carries the state of one Synthesize call.
type synth struct {
	b      builder
	copied *install.CopiedSet
	lay    layout.Layout
	prefix string
	err    error
}

// ref returns the portable path of the installed file for r, or ok=false if
// the installer did not copy one. Mandatory roles must have been copied.
func (s *synth) ref(r schema.Role, mandatory bool) (string, bool) {
	rec, found := s.copied.Get(r)
	if !rec.Present {
		if mandatory && s.err == nil {
			if !found {
				s.err = fmt.Errorf("%w: no record for mandatory role %s", ErrInconsistent, r)
			} else {
				s.err = fmt.Errorf("%w: mandatory role %s was not installed", ErrInconsistent, r)
			}
		}
		return "", false
	}
	if rec.BaseName == "" {
		if s.err == nil {
			s.err = fmt.Errorf("%w: role %s is present without a file name", ErrInconsistent, r)
		}
		return "", false
	}
	return s.lay.InstalledRef(rec.BaseName), true
}

// file writes an active path line for r when it was installed.
func (s *synth) file(r schema.Role, mandatory bool) {
	if ref, ok := s.ref(r, mandatory); ok {
		s.b.kv(s.prefix+string(r), ref)
	}
}

// commentedFile writes a commented-out path line for r when it was installed.
func (s *synth) commentedFile(r schema.Role) {
	if ref, ok := s.ref(r, false); ok {
		s.b.add("#" + s.prefix + string(r) + " = " + ref)
	}
}

func (s *synth) prop(key, value string) {
	s.b.kv(s.prefix+key, value)
}

// Synthesize builds the voice config for props from the installer's record.
//
// Optional trees and PDFs (strength, magnitude) and the log F0 and
// mel-cepstrum GV files appear as active lines iff copied reports them
// present. The strength and magnitude GV files are written commented out when
// present, so they never take effect without an explicit edit. The mixed
// excitation filter bank block is written only when the strength tree was
// installed.
func Synthesize(props Properties, copied *install.CopiedSet) (*Document, error) {
	if copied == nil {
		return nil, fmt.Errorf("%w: nil installation record", ErrInconsistent)
	}
	voice := props.voice()
	locale := props.Locale
	reqVersion := props.requiresVersion()

	s := &synth{
		copied: copied,
		lay:    layout.New("", voice, locale),
		prefix: "voice." + voice + ".",
	}
	b := &s.b

	b.add("#Auto-generated config file for voice " + voice)
	b.blank()
	b.kv("name", voice)
	b.kv(locale+"-voice.version", props.Version)
	b.blank()
	b.kv("voice.version", props.Version)
	b.blank()

	b.add(
		`# Declare "group names" as component that other components can require.`,
		`# These correspond to abstract "groups" of which this component is an instance.`,
		`provides = \`,
		`         `+locale+`-voice \`,
		`         `+hmmVoiceGroup,
	)
	b.blank()

	b.add(
		`# List the dependencies, as a whitespace-separated list.`,
		`# For each required component, an optional minimum version and an optional`,
		`# download url can be given.`,
		`# We can require a component by name or by an abstract "group name"`,
		`# as listed under the "provides" element.`,
		`requires = \`,
		`   `+locale+` \`,
		`   `+baseComponent+` \`,
		`   `+hmmComponent,
	)
	b.blank()
	b.kv("requires."+baseComponent+".version", reqVersion)
	b.kv("requires."+locale+".version", reqVersion)
	if props.DownloadURL != "" {
		b.kv("requires."+locale+".download", props.DownloadURL)
	}
	b.kv("requires."+hmmComponent+".version", reqVersion)
	b.blank()

	b.add(moduleBanner)
	b.blank()
	b.add(`hmm.voices.list = \`, `   `+voice)
	b.blank()

	b.add("# If this setting is not present, a default value of 0 is assumed.")
	s.prop("wants.to.be.default", "0")
	b.blank()

	b.add("# Set your voice specifications")
	s.prop("gender", strings.ToLower(props.Gender))
	s.prop("locale", locale)
	s.prop("domain", strings.ToLower(props.Domain))
	s.prop("samplingRate", strconv.Itoa(props.SamplingRate))
	b.blank()

	b.add(trainingParamsComment)
	s.prop("alpha", formatFloat(props.Alpha))
	s.prop("gamma", strconv.Itoa(props.Gamma))
	s.prop("logGain", strconv.FormatBool(props.LogGain))
	b.blank()

	b.add("# Parameter beta for postfiltering")
	s.prop("beta", formatFloat(props.Beta))
	b.blank()

	b.add("# HMM Voice-specific files", "# Information about trees")
	s.file(schema.TreeDur, true)
	s.file(schema.TreeLf0, true)
	s.file(schema.TreeMcp, true)
	s.file(schema.TreeStr, false)
	s.file(schema.TreeMag, false)
	b.blank()

	b.add("# Information about means and variances PDFs")
	s.file(schema.PdfDur, true)
	s.file(schema.PdfLf0, true)
	s.file(schema.PdfMcp, true)
	s.file(schema.PdfStr, false)
	s.file(schema.PdfMag, false)
	b.blank()

	b.add(gvComment)
	s.prop("useGV", strconv.FormatBool(props.UseGV))
	s.file(schema.GVLf0, false)
	s.file(schema.GVMcp, false)
	s.commentedFile(schema.GVStr)
	s.commentedFile(schema.GVMag)
	b.blank()

	b.add("# File for testing the HMMSynthesiser, a context features file example.")
	s.file(schema.Features, true)
	b.blank()

	b.add("# Information about Mixed Excitation")
	s.prop("useMixExc", strconv.FormatBool(props.UseMixExc))
	s.prop("useFourierMag", strconv.FormatBool(props.UseFourierMag))
	b.blank()

	b.add(extProsodyComment)
	s.prop("useExtDur", strconv.FormatBool(props.UseExtDur))
	s.prop("useExtLogF0", strconv.FormatBool(props.UseExtLogF0))

	filters, filtersOK := s.ref(schema.MixFilters, true)
	if copied.Present(schema.TreeStr) && filtersOK {
		b.blank()
		b.add(filterBankComment)
		s.prop(string(schema.MixFilters), filters)
		b.add("# Number of filters in bandpass bank, default 5 filters")
		s.prop("in", strconv.Itoa(props.NumFilters))
		b.add("# Number of taps in bandpass filters, default 48 taps")
		s.prop("io", strconv.Itoa(props.FilterOrder))
	}

	if s.err != nil {
		return nil, s.err
	}
	return &Document{lines: b.lines}, nil
}
