package propgraph

import (
	"errors"
	"fmt"
)

// Common property errors
var (
	// ErrNotFound is returned when a path, instance or asset does not exist
	ErrNotFound = errors.New("not found")

	// ErrSchemaMissing is returned when an array is extended without element type data
	ErrSchemaMissing = errors.New("schema missing for new array element")

	// ErrIndexOutOfBounds is returned when an array index is past the end
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrInvalidSegment is returned when a segment cannot apply to the node it addresses
	ErrInvalidSegment = errors.New("invalid path segment")

	// ErrReferenceTypeMismatch is returned when a referenced asset has the wrong kind
	ErrReferenceTypeMismatch = errors.New("reference type mismatch")

	// ErrImporterNotHandled is returned when an importer declines a property
	ErrImporterNotHandled = errors.New("importer did not handle property")

	// ErrParse is returned when a dump cannot be turned into a graph
	ErrParse = errors.New("cannot parse property dump")

	// ErrCountMismatch is returned when paths and values differ in length
	ErrCountMismatch = errors.New("paths and values count mismatch")
)

// PathError records a failed path walk and the segment that failed
type PathError struct {
	Path    string
	Segment string
	Index   int // position of Segment in the path
	Detail  string
	Err     error
}

// Error implements the error interface
func (e *PathError) Error() string {
	msg := fmt.Sprintf("path %q: segment %q: %v", e.Path, e.Segment, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap returns the underlying sentinel
func (e *PathError) Unwrap() error {
	return e.Err
}

func pathError(path string, segs []string, i int, err error, detail string) *PathError {
	seg := ""
	if i >= 0 && i < len(segs) {
		seg = segs[i]
	}
	return &PathError{Path: path, Segment: seg, Index: i, Detail: detail, Err: err}
}
