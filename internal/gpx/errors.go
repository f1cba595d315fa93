package gpx

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification with errors.Is.
var (
	ErrParse     = errors.New("gpx parse error")
	ErrTimestamp = errors.New("invalid timestamp")
	ErrWrite     = errors.New("gpx write error")
)

var errEmptyTimestamp = errors.New("empty value")

// ParseError reports a source whose content is malformed or lacks a <gpx> root.
type ParseError struct {
	SourceID string
	Err      error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("failed to parse %s: %v", e.SourceID, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// TimestampError reports a <time> value that could not be parsed.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid timestamp %q: %v", e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrTimestamp.
func (e *TimestampError) Is(target error) bool {
	return target == ErrTimestamp
}

// WriteError reports an output document that could not be fully persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path == "" {
		return fmt.Sprintf("failed to write document: %v", e.Err)
	}
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrWrite.
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}
