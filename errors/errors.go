package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a transfer failure with context about the operation that failed.
// It wraps the underlying client or SDK error together with its classification.
type Error struct {
	// Op is the operation that failed (e.g., "uploadPart", "plan", "complete")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Part is the 1-based part number (0 when the error is not tied to a part)
	Part int

	// Code classifies the failure
	Code ErrorCode

	// ServerTime is the service clock reported with a clock-skew rejection.
	// Zero when unknown.
	ServerTime time.Time

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	prefix := "s3transfer." + e.Op
	if e.Part > 0 {
		prefix = fmt.Sprintf("%s part %d", prefix, e.Part)
	}
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("%s %s/%s: %v", prefix, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("%s bucket %s: %v", prefix, e.Bucket, e.Err)
	case e.Key != "":
		return fmt.Sprintf("%s object %s: %v", prefix, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's code, so errors.Is(err, ErrSender)
// holds for any Error classified as CodeSender.
func (e *Error) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && target == sentinel
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

// WithPart adds the part number to an existing error.
func (e *Error) WithPart(part int) *Error {
	e.Part = part
	return e
}

// WithCode sets the classification of an existing error.
func (e *Error) WithCode(code ErrorCode) *Error {
	e.Code = code
	return e
}

// WithServerTime records the service clock reported by a skew rejection.
func (e *Error) WithServerTime(t time.Time) *Error {
	e.ServerTime = t
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
// The code is inherited from err when err is already classified.
func NewError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Code: CodeOf(err),
		Err:  err,
	}
}

// NewSenderError creates a non-retryable Error.
func NewSenderError(op string, err error) *Error {
	return &Error{Op: op, Code: CodeSender, Err: err}
}

// NewTransientError creates a retryable Error.
func NewTransientError(op string, err error) *Error {
	return &Error{Op: op, Code: CodeTransient, Err: err}
}

// NewClockSkewError creates an Error describing a signature timestamp rejection.
func NewClockSkewError(op string, serverTime time.Time, err error) *Error {
	return &Error{Op: op, Code: CodeClockSkew, ServerTime: serverTime, Err: err}
}

// Sentinel errors matching each classification, usable with errors.Is().
var (
	// ErrSender indicates a client-caused failure
	ErrSender = errors.New("s3transfer: sender error")

	// ErrTransient indicates a retryable network or service failure
	ErrTransient = errors.New("s3transfer: transient error")

	// ErrClockSkew indicates a request signature was rejected for clock drift
	ErrClockSkew = errors.New("s3transfer: clock skew")

	// ErrCapacityExceeded indicates the object is too large for the part limits
	ErrCapacityExceeded = errors.New("s3transfer: size exceeds capacity")

	// ErrTimeout indicates a bounded wait exceeded its deadline
	ErrTimeout = errors.New("s3transfer: timeout")

	// ErrCanceled indicates the transfer was canceled
	ErrCanceled = errors.New("s3transfer: canceled")
)

// Sentinel errors for local conditions.
var (
	// ErrKeyNotFound indicates a missing extension data key
	ErrKeyNotFound = errors.New("s3transfer: key not found")

	// ErrUnsupportedOperation indicates an operation the component does not provide
	ErrUnsupportedOperation = errors.New("s3transfer: unsupported operation")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3transfer: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3transfer: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3transfer: invalid object key")

	// ErrAttemptsExhausted indicates a part failed on every allowed attempt
	ErrAttemptsExhausted = errors.New("s3transfer: attempts exhausted")

	// ErrStreamClosed indicates a read from a closed stream
	ErrStreamClosed = errors.New("s3transfer: stream closed")
)

var codeSentinels = map[ErrorCode]error{
	CodeSender:    ErrSender,
	CodeTransient: ErrTransient,
	CodeClockSkew: ErrClockSkew,
	CodeCapacity:  ErrCapacityExceeded,
	CodeTimeout:   ErrTimeout,
	CodeCanceled:  ErrCanceled,
}

// CodeOf returns the classification carried by err, or CodeUnknown when err
// is not (and does not wrap) an *Error with a code.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return CodeUnknown
}

// IsSender checks if an error is classified as a sender error.
func IsSender(err error) bool {
	return errors.Is(err, ErrSender)
}

// IsCanceled checks if an error indicates the transfer was canceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Is is a convenience alias for the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience alias for the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
