package knowledge

import "fmt"

type DependencyErrorCode string

const (
	DependencyErrorEmbeddingUnavailable DependencyErrorCode = "embedding_unavailable"
	DependencyErrorStoreUnavailable     DependencyErrorCode = "store_unavailable"
	DependencyErrorTimeout              DependencyErrorCode = "timeout"
	DependencyErrorInvalidOwner         DependencyErrorCode = "invalid_owner"
)

// DependencyError is how embedding and vector-store failures surface to
// callers. Retrieval context is best-effort for them, so they need a typed
// error to decide whether to degrade (proceed without context) or abort; a
// silent empty result would hide the difference between "nothing relevant"
// and "provider down".
type DependencyError struct {
	Code      DependencyErrorCode
	Operation string
	Cause     error
}

func (e *DependencyError) Error() string {
	if e == nil {
		return "knowledge dependency failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("knowledge dependency failed (op=%s code=%s): %v", e.Operation, e.Code, e.Cause)
	}
	return fmt.Sprintf("knowledge dependency failed (op=%s code=%s)", e.Operation, e.Code)
}

func (e *DependencyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *DependencyError) Timeout() bool {
	return e != nil && e.Code == DependencyErrorTimeout
}

func depErr(op string, code DependencyErrorCode, cause error) error {
	return &DependencyError{Code: code, Operation: op, Cause: cause}
}

// timeoutAware lets classification recognize typed timeouts from any
// provider package without importing them all.
type timeoutAware interface {
	Timeout() bool
}
