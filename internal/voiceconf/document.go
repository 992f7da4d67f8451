package voiceconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrWriteFailed is returned when the config document cannot be written.
var ErrWriteFailed = errors.New("voiceconf: write failed")

// Document is a synthesised voice config: an ordered list of lines.
type Document struct {
	lines []string
}

// Lines returns a copy of the document's lines.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Bytes renders the document as UTF-8 text with a trailing newline.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range d.lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// String implements fmt.Stringer.
func (d *Document) String() string {
	return string(d.Bytes())
}

// WriteTo implements io.WriterTo. The document is rendered fully before the
// first write.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Bytes())
	return int64(n), err
}

// WriteFile writes the document to path. The parent directory is created if
// needed. The content goes to a temporary file in the same directory which is
// renamed over path, so readers see either the old file or the complete new
// one.
func (d *Document) WriteFile(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %q: %w", ErrWriteFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrWriteFailed, path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := d.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %q: %w", ErrWriteFailed, path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %q: %w", ErrWriteFailed, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrWriteFailed, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrWriteFailed, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrWriteFailed, path, err)
	}
	return nil
}

// builder accumulates lines. Multi-line blocks are split on '\n'.
type builder struct {
	lines []string
}

func (b *builder) add(lines ...string) {
	for _, l := range lines {
		b.lines = append(b.lines, strings.Split(l, "\n")...)
	}
}

func (b *builder) blank() {
	b.lines = append(b.lines, "")
}

func (b *builder) kv(key, value string) {
	b.lines = append(b.lines, key+" = "+value)
}
