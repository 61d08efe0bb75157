package u8

import (
	"errors"
	"fmt"

	"github.com/meigma/smallworld/internal/sizing"
)

// Format error kinds. A *FormatError always unwraps to one of these.
var (
	// ErrBadMagic is returned when the input does not start with the U8 magic.
	ErrBadMagic = errors.New("u8: bad magic")

	// ErrTruncated is returned when the input ends before a structure it declares.
	ErrTruncated = errors.New("u8: truncated archive")

	// ErrMalformed is returned when the node or string tables are inconsistent.
	ErrMalformed = errors.New("u8: malformed archive")
)

// Sentinel errors for archive model operations.
var (
	// ErrExist is returned when a name is already present in its directory.
	ErrExist = errors.New("u8: name already exists")

	// ErrNotExist is returned when a path does not resolve to a node.
	ErrNotExist = errors.New("u8: no such file or directory")

	// ErrNotDir is returned when a path component is a file.
	ErrNotDir = errors.New("u8: not a directory")

	// ErrIsDir is returned when a file operation targets a directory.
	ErrIsDir = errors.New("u8: is a directory")

	// ErrInvalidPath is returned for empty paths or names containing NUL.
	ErrInvalidPath = errors.New("u8: invalid path")

	// ErrInvalidPayload is returned when a PayloadID is not in the arena.
	ErrInvalidPayload = errors.New("u8: invalid payload id")

	// ErrSizeOverflow is returned when an archive is too large to encode.
	ErrSizeOverflow = sizing.ErrSizeOverflow
)

// FormatError describes why Parse rejected its input.
type FormatError struct {
	// Kind is ErrBadMagic, ErrTruncated or ErrMalformed.
	Kind error

	// Offset is the byte offset of the offending structure.
	Offset int64

	// Detail is a short human-readable description.
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v at %#x: %s", e.Kind, e.Offset, e.Detail)
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

func formatErr(kind error, off uint64, format string, args ...any) *FormatError {
	return &FormatError{Kind: kind, Offset: int64(off), Detail: fmt.Sprintf(format, args...)} //nolint:gosec // offsets come from uint32 fields
}
