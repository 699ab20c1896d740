package openai

import "fmt"

type OperationErrorCode string

const (
	OperationErrorMissingAPIKey   OperationErrorCode = "missing_api_key"
	OperationErrorAuthFailed      OperationErrorCode = "auth_failed"
	OperationErrorQuotaExceeded   OperationErrorCode = "quota_exceeded"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorBadResponse     OperationErrorCode = "bad_response"
)

// OperationError is the typed failure surface for embedding calls. Callers
// branch on Code (auth vs quota vs timeout) instead of parsing messages.
type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "openai operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf(
			"openai operation failed (op=%s code=%s status=%d): %s",
			e.Operation,
			e.Code,
			e.StatusCode,
			e.Message,
		)
	}
	if e.Cause != nil {
		return fmt.Sprintf(
			"openai operation failed (op=%s code=%s status=%d): %v",
			e.Operation,
			e.Code,
			e.StatusCode,
			e.Cause,
		)
	}
	return fmt.Sprintf(
		"openai operation failed (op=%s code=%s status=%d)",
		e.Operation,
		e.Code,
		e.StatusCode,
	)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *OperationError) Timeout() bool {
	return e != nil && e.Code == OperationErrorTimeout
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{
		Code:      code,
		Operation: op,
		Message:   msg,
		Cause:     cause,
	}
}
