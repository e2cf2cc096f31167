// Package archiveerr collects the sentinel errors and typed results shared
// by the archive lifecycle engine, in the style of a small, flat error
// package rather than one error type per call site.
package archiveerr

import (
	"errors"
	"fmt"
)

var (
	// Usage / precondition errors.
	ErrSourceMissing       = errors.New("source path does not exist")
	ErrDestinationExists   = errors.New("destination already exists")
	ErrDestinationNoParent = errors.New("destination's parent directory does not exist")
	ErrWrongFileType       = errors.New("path is the wrong file type for this operation")

	// Capacity errors.
	ErrInsufficientSpace = errors.New("insufficient free space for operation")

	// State-mismatch errors.
	ErrAlreadyEncrypted     = errors.New("archive directory already contains encrypted parts")
	ErrAlreadyDecrypted     = errors.New("archive directory already contains unencrypted parts")
	ErrNoCompressedArchives = errors.New("no compressed archives found to encrypt")
	ErrMissingSidecar       = errors.New("archive part is missing a required sidecar file")
)

// PartTooLarge is the fatal splitter error: a single file exceeds the
// configured part-size bound and can never fit in any part.
type PartTooLarge struct {
	Path  string
	Size  int64
	Bound int64
}

func (e *PartTooLarge) Error() string {
	return fmt.Sprintf("file %s (%d bytes) exceeds the part size bound of %d bytes", e.Path, e.Size, e.Bound)
}

// OperatorFailure wraps a non-zero exit or failure from one of the external
// Tar/Compress/Encrypt/Decrypt operators, naming the operator and the part
// being processed so the CLI can surface a precise diagnostic.
type OperatorFailure struct {
	Operator string
	Part     string
	Err      error
}

func (e *OperatorFailure) Error() string {
	return fmt.Sprintf("%s failed on part %s: %v", e.Operator, e.Part, e.Err)
}

func (e *OperatorFailure) Unwrap() error {
	return e.Err
}
