// Package voiceconf generates the configuration file through which the
// synthesis server discovers an installed HMM voice.
//
// [Synthesize] is a pure function of the voice [Properties] and the
// installer's [install.CopiedSet]: optional model files appear in the config
// exactly when the installer copied them. [Document.WriteFile] places the
// result on disk atomically.
package voiceconf

import (
	"strconv"
	"strings"
)

// Properties are the scalar voice attributes and training hyperparameters
// written into the voice config.
type Properties struct {
	// Name is the voice name. It is lower-cased wherever it is used.
	Name string

	// Locale is the normalised locale, e.g. "en_US".
	Locale string

	// Gender and Domain are written lower-cased.
	Gender       string
	Domain       string
	SamplingRate int

	// Version is the version of this voice component.
	Version string

	// RequiresVersion is the minimum version pinned for every required
	// component. Defaults to Version when empty.
	RequiresVersion string

	// DownloadURL, when set, tells the server where to fetch the locale
	// component if it is missing.
	DownloadURL string

	// Frequency warping and generalisation coefficients used in training.
	// MGC: gamma=0 alpha=0.42; LSP variants use gamma>0.
	Alpha float64
	Gamma int

	// LogGain selects log gain instead of linear gain.
	LogGain bool

	// Beta is the postfiltering coefficient, in [-0.8, 0.8].
	Beta float64

	UseGV         bool
	UseExtDur     bool
	UseExtLogF0   bool
	UseMixExc     bool
	UseFourierMag bool

	// NumFilters and FilterOrder describe the mixed-excitation bandpass
	// filter bank.
	NumFilters  int
	FilterOrder int
}

// DefaultProperties returns the hyperparameter defaults of the voice-building
// tools. Name, locale and the voice attributes must still be filled in.
func DefaultProperties() Properties {
	return Properties{
		Version:       "4.0.0",
		Alpha:         0.42,
		Beta:          0.0,
		Gamma:         0,
		LogGain:       false,
		UseGV:         true,
		UseExtDur:     false,
		UseExtLogF0:   false,
		UseMixExc:     true,
		UseFourierMag: true,
		NumFilters:    5,
		FilterOrder:   48,
	}
}

func (p Properties) voice() string {
	return strings.ToLower(p.Name)
}

func (p Properties) requiresVersion() string {
	if p.RequiresVersion != "" {
		return p.RequiresVersion
	}
	return p.Version
}

// formatFloat renders f with the shortest exact representation but always
// with a decimal point, so 0 becomes "0.0".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
