package jmod

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrFormat is returned when a file is not a supported JMOD container.
	ErrFormat = errors.New("jmod: invalid format")

	// ErrMalformedEntry is returned when an entry path lacks a section directory.
	ErrMalformedEntry = errors.New("jmod: malformed entry path")

	// ErrClosed is returned when an operation is attempted on a closed archive.
	ErrClosed = errors.New("jmod: archive closed")

	// ErrSizeOverflow is returned when an entry exceeds the configured size limit.
	ErrSizeOverflow = errors.New("jmod: size overflow")

	// ErrSymlink is returned when a symlink is encountered while adding a directory.
	ErrSymlink = errors.New("jmod: symlink")

	// ErrUnknownSection is returned when a directory name is not a JMOD section.
	ErrUnknownSection = errors.New("jmod: unknown section")
)

// FormatError describes a header that failed validation.
type FormatError struct {
	// Path identifies the offending file or source.
	Path string

	// Reason is a short description of the failure.
	Reason string

	// Found is the version read from the header. Zero unless the failure
	// is a version mismatch.
	Found Version

	// Expected is the newest version this package supports.
	Expected Version
}

func (e *FormatError) Error() string {
	if e.Found != (Version{}) {
		return fmt.Sprintf("jmod: %s: %s: found %s, expected %s or older", e.Path, e.Reason, e.Found, e.Expected)
	}
	return fmt.Sprintf("jmod: %s: %s", e.Path, e.Reason)
}

// Unwrap makes FormatError match ErrFormat.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// EntryError reports a container path that cannot be mapped to an entry.
// It always matches ErrMalformedEntry; Err carries the specific cause when
// the directory was well formed but not a known section.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jmod: malformed entry path %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("jmod: malformed entry path %q", e.Path)
}

// Unwrap makes EntryError match ErrMalformedEntry and its cause.
func (e *EntryError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedEntry, e.Err}
	}
	return []error{ErrMalformedEntry}
}
