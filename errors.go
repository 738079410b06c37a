package ucp

import "fmt"

// Error codes carried in protocol errors.
const (
	ErrCodeUnexpectedStatus   = "unexpected_status"
	ErrCodeMissingChallenge   = "missing_challenge"
	ErrCodeCompletionRejected = "completion_rejected"
)

// ProtocolError is a protocol-level rejection by a merchant: the merchant was
// reachable and answered, but not in a way that lets the handshake proceed.
// It maps to OutcomeFailed, as opposed to transport faults which map to
// OutcomeError.
type ProtocolError struct {
	Code   string
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// NewProtocolError creates a protocol error with a formatted detail.
func NewProtocolError(code, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Code: code, Detail: fmt.Sprintf(format, args...)}
}
