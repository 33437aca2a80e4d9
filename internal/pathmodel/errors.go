package pathmodel

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path points at a missing key or an
	// out-of-range array index.
	ErrNotFound = errors.New("not found")

	// ErrWrongShape is returned when a property segment meets a non-object
	// or an index segment meets a non-array.
	ErrWrongShape = errors.New("wrong shape")

	// ErrInvalidPath is returned for paths that cannot be parsed at all
	// (empty path, empty segment, malformed index).
	ErrInvalidPath = errors.New("invalid path")
)

// PathError reports a navigation failure at a specific segment of a path.
type PathError struct {
	Path    string // full dotted path as given by the caller
	Segment string // segment where navigation stopped
	Err     error  // ErrNotFound, ErrWrongShape or ErrInvalidPath
}

func (e *PathError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("path %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("path %q at segment %q: %v", e.Path, e.Segment, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

func notFound(path, segment string) error {
	return &PathError{Path: path, Segment: segment, Err: ErrNotFound}
}

func wrongShape(path, segment string) error {
	return &PathError{Path: path, Segment: segment, Err: ErrWrongShape}
}

func invalidPath(path, segment string) error {
	return &PathError{Path: path, Segment: segment, Err: ErrInvalidPath}
}
