package errors

// ErrorCode classifies a transfer failure.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// CodeObjectTooLarge indicates the object exceeds an absolute size ceiling of the store.
	// It is never retriable: the caller must pre-split the file or choose another target.
	CodeObjectTooLarge ErrorCode = "OBJECT_TOO_LARGE"

	// CodeTransferFailed indicates a network call against the store failed.
	CodeTransferFailed ErrorCode = "TRANSFER_FAILED"

	// CodeNotFound indicates a remote object or prefix expected to exist does not.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Retryable reports whether a caller may reasonably re-invoke the whole operation
// after an error carrying this code.
func (c ErrorCode) Retryable() bool {
	return c == CodeTransferFailed
}
