package install

import (
	"errors"
	"fmt"

	"github.com/MrWong99/hmmvoice/pkg/schema"
)

var (
	// ErrMissingMandatoryFile is returned when a mandatory role has no file
	// under the source root.
	ErrMissingMandatoryFile = errors.New("install: missing mandatory file")

	// ErrMissingExampleFeatures is returned when neither the declared example
	// features file nor any file in the fallback directory exists.
	ErrMissingExampleFeatures = errors.New("install: no example context features file")

	// ErrCopyFailed is returned when copying a present file fails or the
	// voice directory cannot be created.
	ErrCopyFailed = errors.New("install: copy failed")

	// ErrDuplicateBaseName is returned when two roles would be installed
	// under the same file name.
	ErrDuplicateBaseName = errors.New("install: duplicate file name in voice directory")
)

// FileError reports which role failed and the paths involved. Role is empty
// when the voice directory itself could not be created. It matches one
// of the package sentinels with [errors.Is]; for copy failures it also wraps
// the underlying I/O error.
type FileError struct {
	Role   schema.Role
	Source string
	Dest   string
	Kind   error
	Err    error
}

func (e *FileError) Error() string {
	msg := e.Kind.Error()
	if e.Role != "" {
		msg += fmt.Sprintf(": role %s: source %q", e.Role, e.Source)
	}
	switch {
	case e.Dest != "" && e.Role != "":
		msg += fmt.Sprintf(", dest %q", e.Dest)
	case e.Dest != "":
		msg += fmt.Sprintf(": dest %q", e.Dest)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel kind and the cause.
func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
