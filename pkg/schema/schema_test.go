package schema_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/hmmvoice/pkg/schema"
)

func TestDefaults_Order(t *testing.T) {
	t.Parallel()
	want := []schema.Role{
		schema.TreeDur, schema.TreeLf0, schema.TreeMcp, schema.TreeStr, schema.TreeMag,
		schema.PdfDur, schema.PdfLf0, schema.PdfMcp, schema.PdfStr, schema.PdfMag,
		schema.GVMcp, schema.GVLf0, schema.GVStr, schema.GVMag,
		schema.MixFilters, schema.Features,
	}
	got := schema.Defaults().Roles()
	if len(got) != len(want) {
		t.Fatalf("len(Roles) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Roles[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaults_Mandatory(t *testing.T) {
	t.Parallel()
	mandatory := map[schema.Role]bool{
		schema.TreeDur: true, schema.TreeLf0: true, schema.TreeMcp: true,
		schema.PdfDur: true, schema.PdfLf0: true, schema.PdfMcp: true,
		schema.MixFilters: true, schema.Features: true,
	}
	for _, e := range schema.Defaults().Entries() {
		if e.Mandatory != mandatory[e.Role] {
			t.Errorf("%s: Mandatory = %v, want %v", e.Role, e.Mandatory, mandatory[e.Role])
		}
		if e.Path == "" || e.Description == "" {
			t.Errorf("%s: path and description must be set", e.Role)
		}
	}
}

func TestEntry_UnknownRolePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("Entry with unknown role did not panic")
		}
	}()
	schema.Defaults().Entry("Fxx")
}

func TestLookup(t *testing.T) {
	t.Parallel()
	s := schema.Defaults()
	if _, ok := s.Lookup("Fxx"); ok {
		t.Error("Lookup(Fxx) ok = true, want false")
	}
	e, ok := s.Lookup(schema.GVStr)
	if !ok {
		t.Fatal("Lookup(Fgvs) ok = false")
	}
	if e.BaseName() != "gv-str-littend.pdf" {
		t.Errorf("BaseName = %q, want gv-str-littend.pdf", e.BaseName())
	}
}

func TestWithOverrides(t *testing.T) {
	t.Parallel()
	base := schema.Defaults()

	s, err := base.WithOverrides(map[string]string{"Ftd": " voices/qst002/ver1/tree-dur.inf "})
	if err != nil {
		t.Fatalf("WithOverrides: %v", err)
	}
	if got := s.Entry(schema.TreeDur).Path; got != "voices/qst002/ver1/tree-dur.inf" {
		t.Errorf("overridden path = %q", got)
	}
	if got := base.Entry(schema.TreeDur).Path; got != "voices/qst001/ver1/tree-dur.inf" {
		t.Errorf("base schema was modified: %q", got)
	}
	if !s.Entry(schema.TreeDur).Mandatory {
		t.Error("override dropped the mandatory flag")
	}
}

func TestWithOverrides_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      map[string]string
		wantErr string
	}{
		{"unknown role", map[string]string{"treeDur": "x"}, "unknown role"},
		{"empty path", map[string]string{"Fif": "  "}, "must not be empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.Defaults().WithOverrides(tc.in)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"a/b/c.pdf": "c.pdf",
		"c.pdf":     "c.pdf",
		"a/b/":      "",
	}
	for in, want := range tests {
		if got := schema.BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
