// Package services implements the execution tracking use cases on top of the
// persistence, blob storage and event bus ports.
package services

import (
	"errors"

	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
)

// Not-found errors re-exported from the persistence layer so handlers only
// depend on this package.
var (
	ErrExecutionNotFound = persistence.ErrExecutionNotFound
	ErrStepNotFound      = persistence.ErrStepNotFound
	ErrArtifactNotFound  = persistence.ErrArtifactNotFound
)

// Validation errors (400 Bad Request).
var (
	ErrStepNameRequired    = errors.New("step name is required")
	ErrInvalidArtifactType = errors.New("invalid artifact type")
	ErrEmptyUpload         = errors.New("uploaded file is empty")
)

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrStepNameRequired) ||
		errors.Is(err, ErrInvalidArtifactType) ||
		errors.Is(err, ErrEmptyUpload)
}

// IsNotFoundError checks if an error is a not-found error that should return
// HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrStepNotFound) ||
		errors.Is(err, ErrArtifactNotFound)
}
