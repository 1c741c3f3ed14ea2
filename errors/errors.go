// Package errors provides the error taxonomy for object transfers.
//
// Three failure kinds are distinguished:
//   - ObjectTooLargeError: the file exceeds a hard size ceiling of the store (fatal, non-retriable)
//   - transfer errors: a network call against the store failed (surfaced, never retried internally)
//   - not found errors: a remote object or prefix expected to exist is missing
//
// All of them carry enough context (operation, bucket, key or prefix, sizes) to be logged
// meaningfully, and all of them work with errors.Is and errors.As.
package errors

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	units "github.com/docker/go-units"
)

// Sentinel errors for classification with errors.Is().
var (
	// ErrObjectTooLarge indicates the object exceeds the maximum size for its transfer mode
	ErrObjectTooLarge = errors.New("s3transfer: object too large")

	// ErrTransferFailed indicates a call against the backing store failed
	ErrTransferFailed = errors.New("s3transfer: transfer failed")

	// ErrNotFound indicates the requested object or prefix does not exist
	ErrNotFound = errors.New("s3transfer: not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3transfer: invalid input")

	// ErrIncompleteUpload indicates a multipart upload is missing part tags at completion time
	ErrIncompleteUpload = errors.New("s3transfer: incomplete multipart upload")
)

// Error represents a failed transfer operation with context about what failed.
// It wraps the underlying AWS SDK error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "uploadPart", "delete")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key or prefix (if applicable)
	Key string

	// Code classifies the failure
	Code ErrorCode

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3transfer.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3transfer.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3transfer.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3transfer.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code, so that
// errors.Is(err, ErrTransferFailed) holds for every transfer error.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeTransferFailed:
		return target == ErrTransferFailed
	case CodeNotFound:
		return target == ErrNotFound
	case CodeInvalidInput:
		return target == ErrInvalidInput
	case CodeObjectTooLarge:
		return target == ErrObjectTooLarge
	}
	return false
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
// The code is derived from the wrapped error when it already carries one.
func NewError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Code: CodeOf(err),
		Err:  err,
	}
}

// NewTransferError creates an Error for a failed call against the store.
func NewTransferError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Code:   CodeTransferFailed,
		Err:    err,
	}
}

// NewNotFoundError creates an Error for a missing remote object or prefix.
func NewNotFoundError(op, bucket, key string) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Code:   CodeNotFound,
		Err:    ErrNotFound,
	}
}

// NewInvalidInputError creates an Error for input rejected before any network call.
func NewInvalidInputError(op, message string) *Error {
	return &Error{
		Op:   op,
		Code: CodeInvalidInput,
		Err:  fmt.Errorf("%s: %w", message, ErrInvalidInput),
	}
}

// ObjectTooLargeError reports a file that exceeds the absolute ceiling for its transfer mode.
type ObjectTooLargeError struct {
	// Key is the remote key of the rejected upload, when known
	Key string

	// Size is the file size in bytes
	Size int64

	// Limit is the ceiling that was exceeded, in bytes
	Limit int64

	// Mode is the transfer mode the limit belongs to ("single-shot" or "multipart")
	Mode string
}

// Error implements the error interface.
func (e *ObjectTooLargeError) Error() string {
	msg := fmt.Sprintf("%s upload of %s (%d bytes) exceeds the %s limit",
		e.Mode, units.BytesSize(float64(e.Size)), e.Size, units.BytesSize(float64(e.Limit)))
	if e.Key != "" {
		msg = e.Key + ": " + msg
	}
	return "s3transfer: object too large: " + msg
}

// Is reports ErrObjectTooLarge as equivalent.
func (e *ObjectTooLargeError) Is(target error) bool {
	return target == ErrObjectTooLarge
}

// CodeOf extracts the ErrorCode carried by err, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &e) && e.Code != "":
		return e.Code
	case errors.Is(err, ErrObjectTooLarge):
		return CodeObjectTooLarge
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrTransferFailed):
		return CodeTransferFailed
	}
	return CodeUnknown
}

// APIErrorCode returns the error code reported by the store, or "" when err
// is not an API error.
func APIErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsAPINotFound reports whether the store answered that the object does not exist.
func IsAPINotFound(err error) bool {
	switch APIErrorCode(err) {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}

// IsObjectTooLarge checks if an error indicates the object exceeds a size ceiling.
func IsObjectTooLarge(err error) bool {
	return errors.Is(err, ErrObjectTooLarge)
}

// IsTransferError checks if an error indicates a failed call against the store.
func IsTransferError(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}

// IsNotFound checks if an error indicates a missing object or prefix.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRetryable reports whether re-invoking the whole operation may succeed.
// Size, input and not-found errors are permanent.
func IsRetryable(err error) bool {
	return CodeOf(err).Retryable()
}
