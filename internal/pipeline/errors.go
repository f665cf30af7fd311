package pipeline

import (
	"errors"
	"fmt"

	"github.com/sells-group/rep-ingest/internal/model"
)

// ValidationError reports a malformed ZIP code. It is never retried and the
// ZIP code is never sent downstream.
type ValidationError struct {
	ZIP string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid ZIP code format: %q", e.ZIP)
}

// NotFoundError reports that no geography source knows the ZIP code. It is
// terminal for that ZIP code but not a system fault.
type NotFoundError struct {
	ZIP string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("geography resolution failed: no geography for ZIP code %s", e.ZIP)
}

// ResolutionError reports a geography backend that could not answer, such as
// a live resolver that ran out of retries. The ZIP code may well exist.
type ResolutionError struct {
	ZIP string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("geography resolution failed for ZIP code %s: %v", e.ZIP, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// NoRepresentativesError reports that every adapter came back empty.
type NoRepresentativesError struct {
	ZIP string
}

func (e *NoRepresentativesError) Error() string {
	return fmt.Sprintf("no representatives found after processing for ZIP code %s", e.ZIP)
}

// PersistenceError reports a storage operation that failed after its own
// transaction rolled back.
type PersistenceError struct {
	ZIP string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s) for ZIP code %s: %v", e.Op, e.ZIP, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsResolution reports whether err is or wraps a *ResolutionError.
func IsResolution(err error) bool {
	var r *ResolutionError
	return errors.As(err, &r)
}

// IsPersistence reports whether err is or wraps a *PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// failureReason maps a terminal pipeline error to the reason recorded on the
// result.
func failureReason(err error) string {
	switch {
	case IsValidation(err):
		return model.FailureInvalidZIP
	case IsNotFound(err):
		return model.FailureNoGeography
	case IsResolution(err):
		return model.FailureGeographyDown
	case IsPersistence(err):
		return model.FailurePersistence
	default:
		return model.FailureNoRepresentatives
	}
}
