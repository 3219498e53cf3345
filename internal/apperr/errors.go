// Package apperr defines the sentinel errors shared across the repository
// layers. Callers match them with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrOutsideRoot          = errors.New("path is outside the repository root")
	ErrNoFrontMatter        = errors.New("no front matter")
	ErrMalformedFrontMatter = errors.New("malformed front matter")
)
