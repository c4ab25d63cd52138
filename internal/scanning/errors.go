package scanning

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is wrapped by an ExtractionError when the model returns no text
var ErrEmptyResponse = errors.New("empty response")

// ReadError means the source document could not be read or encoded
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading document: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ExtractionError means the model call failed or produced nothing usable
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting receipts: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NormalizationError means the model output was not the expected structured data.
// Raw holds the offending text for diagnostics and must not be shown to end users.
type NormalizationError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

func invalidEncoding(raw string, err error) error {
	return &NormalizationError{Reason: "invalid response encoding", Raw: raw, Err: err}
}
