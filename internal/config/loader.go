package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Option adjusts a decoded [Config] before it is validated. Options carry
// command-line overrides.
type Option func(*Config)

// WithSourceRoot overrides paths.source_root when dir is non-empty.
func WithSourceRoot(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.Paths.SourceRoot = dir
		}
	}
}

// WithInstallRoot overrides paths.install_root when dir is non-empty.
func WithInstallRoot(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.Paths.InstallRoot = dir
		}
	}
}

// WithArchive enables the archive step when enabled is true. It never
// disables an archive step requested by the file.
func WithArchive(enabled bool) Option {
	return func(c *Config) {
		if enabled {
			c.Archive.Enabled = true
		}
	}
}

// WithArchiveCommand overrides archive.command when cmd is non-empty.
func WithArchiveCommand(cmd string) Option {
	return func(c *Config) {
		if cmd != "" {
			c.Archive.Command = cmd
		}
	}
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string, opts ...Option) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default], applies
// opts and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader, opts ...Option) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Paths
	if cfg.Paths.SourceRoot == "" {
		errs = append(errs, errors.New("paths.source_root is required"))
	}
	if cfg.Paths.InstallRoot == "" {
		errs = append(errs, errors.New("paths.install_root is required"))
	}

	// Voice
	v := cfg.Voice
	if v.Name == "" {
		errs = append(errs, errors.New("voice.name is required"))
	} else if strings.ContainsAny(v.Name, "/\\ \t") {
		errs = append(errs, fmt.Errorf("voice.name %q must not contain path separators or whitespace", v.Name))
	}
	if v.Locale == "" {
		errs = append(errs, errors.New("voice.locale is required"))
	} else if _, err := NormalizeLocale(v.Locale); err != nil {
		errs = append(errs, fmt.Errorf("voice.locale: %w", err))
	}
	if v.Gender == "" {
		errs = append(errs, errors.New("voice.gender is required"))
	}
	if v.SamplingRate <= 0 {
		errs = append(errs, fmt.Errorf("voice.sampling_rate %d must be positive", v.SamplingRate))
	}
	if err := validateVersion("voice.version", v.Version); err != nil {
		errs = append(errs, err)
	}
	if v.RequiresVersion != "" {
		if err := validateVersion("voice.requires_version", v.RequiresVersion); err != nil {
			errs = append(errs, err)
		}
	}

	// Model
	m := cfg.Model
	if m.Beta < -0.8 || m.Beta > 0.8 {
		errs = append(errs, fmt.Errorf("model.beta %.2f is out of range [-0.8, 0.8]", m.Beta))
	}
	if m.Gamma < 0 {
		errs = append(errs, fmt.Errorf("model.gamma %d must not be negative", m.Gamma))
	}
	if m.NumFilters <= 0 {
		errs = append(errs, fmt.Errorf("model.num_filters %d must be positive", m.NumFilters))
	}
	if m.FilterOrder <= 0 {
		errs = append(errs, fmt.Errorf("model.filter_order %d must be positive", m.FilterOrder))
	}

	// Files
	if _, err := cfg.Schema(); err != nil {
		errs = append(errs, fmt.Errorf("files: %w", err))
	}

	// Archive
	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.Command) == "" {
		errs = append(errs, errors.New("archive.command is required when archive.enabled is true"))
	}

	return errors.Join(errs...)
}

func validateVersion(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, err := semver.StrictNewVersion(v); err != nil {
		return fmt.Errorf("%s %q is not a valid semantic version: %w", field, v, err)
	}
	return nil
}

// NormalizeLocale converts a locale in either "en_US" or BCP 47 "en-US" form
// into the underscore form used in voice config file names and keys. A locale
// without an explicit region is returned as the bare language, e.g. "de".
func NormalizeLocale(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("config: empty locale")
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("config: locale %q: %w", s, err)
	}
	base, _ := tag.Base()
	out := base.String()
	if region, conf := tag.Region(); conf == language.Exact {
		out += "_" + region.String()
	}
	return out, nil
}
