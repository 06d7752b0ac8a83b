package core

import (
	"errors"
	"net/http"
)

// ErrorKind classifies why a prediction request failed.
type ErrorKind int

const (
	KindMissingFile ErrorKind = iota + 1
	KindEmptyFilename
	KindInvalidFilename
	KindDecodeFailure
	KindStorageFailure
)

func (kind ErrorKind) String() string {
	switch kind {
	case KindMissingFile:
		return "missing_file"
	case KindEmptyFilename:
		return "empty_filename"
	case KindInvalidFilename:
		return "invalid_filename"
	case KindDecodeFailure:
		return "decode_failure"
	case KindStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// StatusCode maps the kind to the HTTP status reported to the client.
func (kind ErrorKind) StatusCode() int {
	switch kind {
	case KindMissingFile, KindEmptyFilename, KindInvalidFilename:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PredictError is returned by every failing step of a prediction. Message is
// what the client sees; Err keeps the cause for logging and errors.Is.
type PredictError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PredictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *PredictError) Unwrap() error {
	return e.Err
}

var (
	ErrMissingFile   = &PredictError{Kind: KindMissingFile, Message: "No file uploaded"}
	ErrEmptyFilename = &PredictError{Kind: KindEmptyFilename, Message: "No file selected"}
)

func newPredictError(kind ErrorKind, err error) *PredictError {
	return &PredictError{Kind: kind, Message: err.Error(), Err: err}
}

// KindOf extracts the kind of err, or 0 if err is not a PredictError.
func KindOf(err error) ErrorKind {
	var predictErr *PredictError
	if errors.As(err, &predictErr) {
		return predictErr.Kind
	}
	return 0
}
