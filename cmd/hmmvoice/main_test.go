package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/hmmvoice/pkg/schema"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// voiceFixture creates a source tree with every mandatory file and a config
// pointing at it. It returns the config path and the install root.
func voiceFixture(t *testing.T, extraYAML string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "build")
	dest := filepath.Join(dir, "install")
	for _, e := range schema.Defaults().Entries() {
		if e.Mandatory {
			writeFile(t, filepath.Join(src, filepath.FromSlash(e.Path)), string(e.Role))
		}
	}
	cfg := `
log_level: error
paths:
  source_root: ` + src + `
  install_root: ` + dest + `
voice:
  name: SLT
  locale: en-US
  gender: female
` + extraYAML
	cfgPath := filepath.Join(dir, "voice.yaml")
	writeFile(t, cfgPath, cfg)
	return cfgPath, dest
}

func TestRun_ListRoles(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-list-roles"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, e := range schema.Defaults().Entries() {
		if !strings.Contains(out, string(e.Role)) || !strings.Contains(out, e.Path) {
			t.Errorf("role listing lacks %s (%s)", e.Role, e.Path)
		}
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := map[string][]string{
		"unknown flag":    {"-no-such-flag"},
		"extra arguments": {"-config", "x.yaml", "surplus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(args, &stdout, &stderr); code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestRun_MissingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if code := run([]string{"-config", path}, &stdout, &stderr); code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "not found") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_InstallsVoice(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "hmmvoice.prom")
	cfgPath, dest := voiceFixture(t, "telemetry:\n  metrics_file: "+metrics+"\n")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", cfgPath}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	cfgFile := filepath.Join(dest, "conf", "en_US-slt.config")
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		t.Fatalf("voice config not written: %v", err)
	}
	if !strings.Contains(string(data), "voice.slt.locale = en_US\n") {
		t.Errorf("voice config lacks the normalised locale:\n%s", data)
	}
	if !strings.Contains(stdout.String(), cfgFile) {
		t.Errorf("summary does not name the config file: %s", stdout.String())
	}

	prom, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(prom), "hmmvoice_runs") {
		t.Errorf("metrics file lacks hmmvoice_runs:\n%s", prom)
	}
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	cfgPath, _ := voiceFixture(t, "")
	altDest := filepath.Join(t.TempDir(), "elsewhere")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", cfgPath, "-dest", altDest}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(altDest, "conf", "en_US-slt.config")); err != nil {
		t.Errorf("voice config not written below -dest: %v", err)
	}
}

func TestRun_ArchiveFailure(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	cfgPath, _ := voiceFixture(t, "")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "-zip", "-zip-command", "false"}, &stdout, &stderr)
	if code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "archive failed") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_MissingMandatoryFile(t *testing.T) {
	cfgPath, _ := voiceFixture(t, "files:\n  Ftd: does/not/exist.inf\n")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", cfgPath}, &stdout, &stderr); code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "install failed") || !strings.Contains(stderr.String(), "Ftd") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_CollidingFileNames(t *testing.T) {
	cfgPath, _ := voiceFixture(t, "files:\n  Fgvf: data/gv/lf0.pdf\n")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", cfgPath}, &stdout, &stderr); code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "resolve failed") || !strings.Contains(stderr.String(), "Fmf") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
