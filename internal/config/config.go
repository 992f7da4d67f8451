// Package config provides the configuration schema and loader for hmmvoice.
//
// A config file describes one voice: where its trained model files live,
// where to install it, the voice attributes and training hyperparameters
// written into the voice config, and optional archive and telemetry settings.
package config

import (
	"github.com/MrWong99/hmmvoice/internal/archive"
	"github.com/MrWong99/hmmvoice/internal/voiceconf"
	"github.com/MrWong99/hmmvoice/pkg/schema"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for hmmvoice.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	Paths PathsConfig `yaml:"paths"`
	Voice VoiceConfig `yaml:"voice"`
	Model ModelConfig `yaml:"model"`

	// Files overrides the source path of individual roles, keyed by role
	// name (e.g. "Ftd"). Paths are relative to Paths.SourceRoot.
	Files map[string]string `yaml:"files"`

	Archive   ArchiveConfig   `yaml:"archive"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PathsConfig locates the voice-building directory and the installation root.
type PathsConfig struct {
	// SourceRoot is the voice-building directory holding the trained models.
	SourceRoot string `yaml:"source_root"`

	// InstallRoot is the synthesis server installation root.
	InstallRoot string `yaml:"install_root"`

	// FallbackFeaturesDir is searched for an example features file when the
	// declared one is missing. Relative to SourceRoot unless absolute.
	// Default: phonefeatures/gen.
	FallbackFeaturesDir string `yaml:"fallback_features_dir"`
}

// VoiceConfig holds the voice attributes.
type VoiceConfig struct {
	Name string `yaml:"name"`

	// Locale accepts both "en_US" and BCP 47 "en-US" forms.
	Locale string `yaml:"locale"`

	Gender       string `yaml:"gender"`
	Domain       string `yaml:"domain"`
	SamplingRate int    `yaml:"sampling_rate"`

	// Version is the voice component version. Default: 4.0.0.
	Version string `yaml:"version"`

	// RequiresVersion is the minimum version of required components.
	// Defaults to Version.
	RequiresVersion string `yaml:"requires_version"`

	// DownloadURL is written as the locale component's download location.
	DownloadURL string `yaml:"download_url"`
}

// ModelConfig holds the training hyperparameters.
type ModelConfig struct {
	Alpha         float64 `yaml:"alpha"`
	Beta          float64 `yaml:"beta"`
	Gamma         int     `yaml:"gamma"`
	LogGain       bool    `yaml:"log_gain"`
	UseGV         bool    `yaml:"use_gv"`
	UseExtDur     bool    `yaml:"use_ext_dur"`
	UseExtLogF0   bool    `yaml:"use_ext_logf0"`
	UseMixExc     bool    `yaml:"use_mix_exc"`
	UseFourierMag bool    `yaml:"use_fourier_mag"`
	NumFilters    int     `yaml:"num_filters"`
	FilterOrder   int     `yaml:"filter_order"`
}

// ArchiveConfig controls the optional archive step.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// Command is the archiving program and its leading flags. Default: zip.
	Command string `yaml:"command"`

	// Shell runs the archive command line. Default: /bin/sh.
	Shell string `yaml:"shell"`
}

// TelemetryConfig controls metrics export.
type TelemetryConfig struct {
	// MetricsFile, when set, receives the run's metrics in the Prometheus
	// text exposition format after the run.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns a Config populated with the stock defaults. Fields absent
// from a YAML file keep these values.
func Default() *Config {
	p := voiceconf.DefaultProperties()
	return &Config{
		LogLevel: LogInfo,
		Paths: PathsConfig{
			FallbackFeaturesDir: schema.DefaultFallbackFeaturesDir,
		},
		Voice: VoiceConfig{
			Domain:       "general",
			SamplingRate: 16000,
			Version:      p.Version,
		},
		Model: ModelConfig{
			Alpha:         p.Alpha,
			Beta:          p.Beta,
			Gamma:         p.Gamma,
			LogGain:       p.LogGain,
			UseGV:         p.UseGV,
			UseExtDur:     p.UseExtDur,
			UseExtLogF0:   p.UseExtLogF0,
			UseMixExc:     p.UseMixExc,
			UseFourierMag: p.UseFourierMag,
			NumFilters:    p.NumFilters,
			FilterOrder:   p.FilterOrder,
		},
		Archive: ArchiveConfig{
			Command: archive.DefaultCommand,
			Shell:   "/bin/sh",
		},
	}
}

// Properties converts the voice and model sections into the properties written
// to the voice config. The locale is normalised.
func (c *Config) Properties() (voiceconf.Properties, error) {
	locale, err := NormalizeLocale(c.Voice.Locale)
	if err != nil {
		return voiceconf.Properties{}, err
	}
	return voiceconf.Properties{
		Name:            c.Voice.Name,
		Locale:          locale,
		Gender:          c.Voice.Gender,
		Domain:          c.Voice.Domain,
		SamplingRate:    c.Voice.SamplingRate,
		Version:         c.Voice.Version,
		RequiresVersion: c.Voice.RequiresVersion,
		DownloadURL:     c.Voice.DownloadURL,
		Alpha:           c.Model.Alpha,
		Beta:            c.Model.Beta,
		Gamma:           c.Model.Gamma,
		LogGain:         c.Model.LogGain,
		UseGV:           c.Model.UseGV,
		UseExtDur:       c.Model.UseExtDur,
		UseExtLogF0:     c.Model.UseExtLogF0,
		UseMixExc:       c.Model.UseMixExc,
		UseFourierMag:   c.Model.UseFourierMag,
		NumFilters:      c.Model.NumFilters,
		FilterOrder:     c.Model.FilterOrder,
	}, nil
}

// Schema returns the default file schema with the Files overrides applied.
func (c *Config) Schema() (schema.Schema, error) {
	return schema.Defaults().WithOverrides(c.Files)
}
