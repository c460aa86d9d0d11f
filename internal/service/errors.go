package service

import (
	"errors"
	"fmt"
)

// Sentinel failures for the ingestion flow. Handlers map these to HTTP
// statuses; callers test with errors.Is.
var (
	ErrUploadFailed          = errors.New("upload failed")
	ErrSignedReferenceFailed = errors.New("signed reference failed")
	ErrRecognitionFailed     = errors.New("recognition failed")
	ErrValidationFailed      = errors.New("validation failed")
	ErrQuotaExceeded         = errors.New("monthly expense limit reached")
	ErrPersistenceFailed     = errors.New("persistence failed")

	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

// StageError tags an underlying failure with the ingestion stage it came
// from and the sentinel that classifies it. Unwrap exposes both, so
// errors.Is(err, ErrRecognitionFailed) and errors.Is(err, underlying)
// each hold.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageFail(stage string, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
