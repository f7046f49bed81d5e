package main

import (
	"errors"
	"fmt"
	"io/fs"
)

var ErrNotDirectory = errors.New("not a directory")

// InvalidRootError means a scan could not start: the root is missing,
// unreadable or not a directory.
type InvalidRootError struct {
	Path string
	Err  error
}

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid root %s: %v", e.Path, e.Err)
}

func (e *InvalidRootError) Unwrap() error { return e.Err }

// PermissionDeniedError is recorded when a target fails the write-access check.
type PermissionDeniedError struct {
	Path string
	Err  error
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Path)
}

func (e *PermissionDeniedError) Unwrap() error {
	if e.Err == nil {
		return fs.ErrPermission
	}
	return e.Err
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == fs.ErrPermission
}

// DeletionFailedError is recorded when a target is still present after removal.
type DeletionFailedError struct {
	Path string
	Err  error
}

func (e *DeletionFailedError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Path, e.Err)
}

func (e *DeletionFailedError) Unwrap() error { return e.Err }

// Failure pairs a target path with the reason it was not removed.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }
