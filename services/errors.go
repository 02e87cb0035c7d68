// Package services holds the workflow engine and the query helpers shared by
// the HTTP controllers. All document and assignment status transitions go
// through WorkflowService; controllers only translate errors to HTTP codes.
package services

import "errors"

// Sentinel errors for workflow operations. Callers match with errors.Is and
// map them onto HTTP statuses; every error is terminal for the operation.
var (
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
)
