package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Serving-side error codes for the decoy surface.
	ErrCodeCorpusUnavailable = "CORPUS_UNAVAILABLE"
	ErrCodeWeaveFailure      = "WEAVE_FAILURE"
	ErrCodeStoreFailure      = "STORE_FAILURE"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecoyError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type DecoyError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *DecoyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DecoyError) Unwrap() error {
	return e.Err
}

// NewDecoyError creates a new DecoyError.
func NewDecoyError(code, message string, err error) *DecoyError {
	return &DecoyError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *DecoyError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
