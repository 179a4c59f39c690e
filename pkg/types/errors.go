// Package types defines error types for the mirror filesystem.
package types

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidSourceRoot = errors.New("invalid source root directory")
	ErrInvalidMountPoint = errors.New("invalid mount point")
)

// PathError represents a filesystem operation error with context.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
