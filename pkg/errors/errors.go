// Package errors defines the error kinds surfaced by the retrieval pipeline.
// Every stage reports structural failures as a *StageError wrapping one of the
// sentinel kinds below, so callers can match with errors.Is and decide whether
// to abort the run or skip the offending record.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedInput marks a document or query without extractable tokens.
	// Stages resolve it to an empty vector; it is only recorded, never raised
	// out of the kernel.
	ErrMalformedInput = errors.New("malformed input")
	// ErrArithmeticDegenerate marks a zero idf or magnitude denominator.
	ErrArithmeticDegenerate = errors.New("degenerate arithmetic")
	// ErrInconsistentModel marks a document referenced at query time that the
	// vector model does not contain.
	ErrInconsistentModel = errors.New("document missing from vector model")
	// ErrInvalidRecord marks a record with the wrong shape in an input file.
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
	ErrTimeout       = errors.New("operation timed out")
)

// StageError attributes a failure to a pipeline stage.
type StageError struct {
	Stage   string
	Err     error
	Message string
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Err.Error(), e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func New(stage string, sentinel error, message string) *StageError {
	return &StageError{
		Stage:   stage,
		Err:     sentinel,
		Message: message,
	}
}

func Newf(stage string, sentinel error, format string, args ...any) *StageError {
	return &StageError{
		Stage:   stage,
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// HTTPStatusCode maps an error kind to the status the search service answers
// with.
func HTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRecord), errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInconsistentModel):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
