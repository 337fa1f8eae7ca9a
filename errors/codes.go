// Package errors provides the error taxonomy for multipart transfers.
// Every failure surfaced by a transfer command carries an ErrorCode that
// classifies it for retry decisions and for callers inspecting the result.
package errors

// ErrorCode classifies a transfer failure.
// Error codes are string-based for debuggability and natural log output.
type ErrorCode string

const (
	// CodeSender indicates the request itself was invalid (bad input,
	// authorization, failed precondition). Never retried.
	CodeSender ErrorCode = "SENDER_ERROR"

	// CodeTransient indicates a network or service-side failure that may
	// succeed when resent.
	CodeTransient ErrorCode = "TRANSIENT_ERROR"

	// CodeClockSkew indicates the service rejected a request signature because
	// its timestamp drifted too far from server time.
	CodeClockSkew ErrorCode = "CLOCK_SKEW"

	// CodeCapacity indicates the object cannot be planned within the
	// configured part limits.
	CodeCapacity ErrorCode = "CAPACITY_EXCEEDED"

	// CodeTimeout indicates a bounded wait exceeded its deadline.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCanceled indicates the transfer was canceled by the caller.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeUnknown indicates an unclassified failure.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Retryable reports whether failures carrying this code may be resent.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeTransient, CodeClockSkew, CodeUnknown:
		return true
	default:
		return false
	}
}

// String returns the code's string form.
func (c ErrorCode) String() string {
	return string(c)
}
