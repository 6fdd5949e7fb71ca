package ingest

import "fmt"

type ErrorCode string

const (
	ErrorValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorTransport    ErrorCode = "TRANSPORT_ERROR"
	ErrorPartialBatch ErrorCode = "PARTIAL_BATCH_FAILURE"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("ingest: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("ingest: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
