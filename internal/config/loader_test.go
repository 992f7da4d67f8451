package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/hmmvoice/internal/config"
)

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name:    "invalid log level",
			yaml:    minimalYAML + "log_level: verbose\n",
			wantErr: []string{"log_level"},
		},
		{
			name:    "empty document",
			yaml:    "",
			wantErr: []string{"paths.source_root", "paths.install_root", "voice.name", "voice.locale", "voice.gender"},
		},
		{
			name:    "bad locale",
			yaml:    strings.Replace(minimalYAML, "locale: en_US", "locale: not a locale!", 1),
			wantErr: []string{"voice.locale"},
		},
		{
			name:    "voice name with separator",
			yaml:    strings.Replace(minimalYAML, "name: slt", "name: ../slt", 1),
			wantErr: []string{"voice.name"},
		},
		{
			name: "out of range model values",
			yaml: minimalYAML + `
model:
  beta: 0.9
  gamma: -1
  num_filters: 0
  filter_order: -4
`,
			wantErr: []string{"model.beta", "model.gamma", "model.num_filters", "model.filter_order"},
		},
		{
			name:    "non-positive sampling rate",
			yaml:    strings.Replace(minimalYAML, "gender: female", "gender: female\n  sampling_rate: 0", 1),
			wantErr: []string{"voice.sampling_rate"},
		},
		{
			name:    "non-semver version",
			yaml:    strings.Replace(minimalYAML, "gender: female", "gender: female\n  version: \"4.0\"\n  requires_version: v4.0.0", 1),
			wantErr: []string{"voice.version", "voice.requires_version"},
		},
		{
			name: "unknown file role",
			yaml: minimalYAML + `
files:
  Fxx: trees/unknown.inf
`,
			wantErr: []string{"files", "Fxx"},
		},
		{
			name: "empty file override",
			yaml: minimalYAML + `
files:
  Ftd: "  "
`,
			wantErr: []string{"files", "Ftd"},
		},
		{
			name: "archive without command",
			yaml: minimalYAML + `
archive:
  enabled: true
  command: ""
`,
			wantErr: []string{"archive.command"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			for _, want := range tc.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should mention %q, got: %v", want, err)
				}
			}
		})
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := minimalYAML + "voices_dir: /tmp\n"
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "voices_dir") {
		t.Errorf("error should name the unknown field, got: %v", err)
	}
}

func TestLoadFromReader_OptionsOverride(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  name: slt
  locale: en_US
  gender: female
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml),
		config.WithSourceRoot("/src"),
		config.WithInstallRoot("/dst"),
		config.WithArchive(true),
		config.WithArchiveCommand("7z a"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Paths.SourceRoot != "/src" || cfg.Paths.InstallRoot != "/dst" {
		t.Errorf("paths: got %+v", cfg.Paths)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Command != "7z a" {
		t.Errorf("archive: got %+v", cfg.Archive)
	}
}

func TestLoadFromReader_EmptyOptionsKeepFileValues(t *testing.T) {
	t.Parallel()
	yaml := minimalYAML + `
archive:
  enabled: true
  command: zip -9
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml),
		config.WithSourceRoot(""),
		config.WithInstallRoot(""),
		config.WithArchive(false),
		config.WithArchiveCommand(""),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Paths.SourceRoot != "/data/build/slt" || cfg.Paths.InstallRoot != "/opt/marytts" {
		t.Errorf("paths: got %+v", cfg.Paths)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Command != "zip -9" {
		t.Errorf("archive: got %+v", cfg.Archive)
	}
}

func TestNormalizeLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "en_US", want: "en_US"},
		{in: "en-US", want: "en_US"},
		{in: "EN_us", want: "en_US"},
		{in: "de", want: "de"},
		{in: " it ", want: "it"},
		{in: "en-GB", want: "en_GB"},
		{in: "te", want: "te"},
		{in: "", wantErr: true},
		{in: "not a locale!", wantErr: true},
	}

	for _, tc := range tests {
		got, err := config.NormalizeLocale(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeLocale(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeLocale(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeLocale(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
