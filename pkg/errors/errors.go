package errors

import (
	"fmt"
)

// PatternError represents a failure to compile an anchor pattern.
type PatternError struct {
	Pattern string
	Err     error
}

// NewPatternError constructs a PatternError.
func NewPatternError(pattern string, err error) error {
	return &PatternError{Pattern: pattern, Err: err}
}

func (e *PatternError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("pattern error: %s: %v", e.Pattern, e.Err)
}

// Unwrap exposes the underlying error.
func (e *PatternError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DiscoveryError indicates a required structural anchor could not be located
// in the target source text.
type DiscoveryError struct {
	Anchor  string
	Message string
}

// NewDiscoveryError constructs a DiscoveryError for the named anchor.
func NewDiscoveryError(anchor, message string) error {
	return &DiscoveryError{Anchor: anchor, Message: message}
}

func (e *DiscoveryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Anchor != "" {
		return fmt.Sprintf("discovery error [%s]: %s", e.Anchor, e.Message)
	}
	return fmt.Sprintf("discovery error: %s", e.Message)
}

// ReadError indicates the target file could not be read.
type ReadError struct {
	Path string
	Err  error
}

// NewReadError constructs a ReadError.
func NewReadError(path string, err error) error {
	return &ReadError{Path: path, Err: err}
}

func (e *ReadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("read error: %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ReadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WriteError indicates the final write back to disk failed.
type WriteError struct {
	Path string
	Err  error
}

// NewWriteError constructs a WriteError.
func NewWriteError(path string, err error) error {
	return &WriteError{Path: path, Err: err}
}

func (e *WriteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("write error: %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
