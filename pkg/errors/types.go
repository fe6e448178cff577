package errors

import (
	"fmt"
)

// ErrMalformedMapping is the root cause of mappings that can't be split into
// a source and a destination.
var ErrMalformedMapping = New("mapping must have the form \"source|destination\"")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// Kind classifies why a single sync entry failed.
type Kind string

const (
	// KindMissingSource means the file or key to read from isn't there.
	KindMissingSource Kind = "MISSING_SOURCE"

	// KindIOFailure covers copy, move, remove and permission errors.
	KindIOFailure Kind = "IO_FAILURE"

	// KindMalformedMapping means a configured entry couldn't be parsed.
	KindMalformedMapping Kind = "MALFORMED_MAPPING"

	// KindPlatformCommand means a registry import, export or delete failed.
	KindPlatformCommand Kind = "PLATFORM_COMMAND_FAILURE"
)

// EntryError is the error recorded for a single mapping, cleanup entry or
// registry export.
type EntryError struct {
	Kind  Kind
	Entry string
	Err   error
}

func (err EntryError) Error() string {
	return fmt.Sprintf("%s (%s): %s", err.Entry, err.Kind, err.Err)
}

func (err EntryError) Unwrap() error {
	return err.Err
}

// KindOf returns the Kind of the first EntryError in err's chain, or the empty
// Kind if there is none.
func KindOf(err error) Kind {
	var entryErr EntryError
	if As(err, &entryErr) {
		return entryErr.Kind
	}
	return ""
}
