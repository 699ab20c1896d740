package normalization

import "fmt"

type RecordErrorCode string

const (
	RecordErrorNotAnObject RecordErrorCode = "not_an_object"
	RecordErrorNotAList    RecordErrorCode = "not_a_list"
	RecordErrorBadElement  RecordErrorCode = "bad_element"
)

// RecordError reports a structurally invalid externally produced record.
// Missing optional fields are never an error (they default to empty); a
// wrong top-level shape always is, because silently coercing it would mask a
// caller bug.
type RecordError struct {
	Code  RecordErrorCode
	Field string
	Cause error
}

func (e *RecordError) Error() string {
	if e == nil {
		return "malformed record"
	}
	if e.Field != "" {
		return fmt.Sprintf("malformed record (code=%s field=%s)", e.Code, e.Field)
	}
	return fmt.Sprintf("malformed record (code=%s)", e.Code)
}

func (e *RecordError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func recordErr(code RecordErrorCode, field string) error {
	return &RecordError{Code: code, Field: field}
}
