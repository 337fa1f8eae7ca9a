// Package transfertypes provides shared type definitions for the transfer engine.
package transfertypes

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/extdata"
)

// UnknownSize marks a total that has not been discovered yet.
const UnknownSize int64 = -1

// Extension data keys written by the engine on a command.
const (
	// ExtUploadID holds the multipart upload id once created
	ExtUploadID = "s3transfer.upload-id"

	// ExtETag holds the entity tag of the completed object
	ExtETag = "s3transfer.etag"
)

// Direction identifies whether a command sends or receives an object.
type Direction string

// Transfer directions
const (
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// State is the lifecycle state of a transfer command.
type State string

// Command states. Completed, Failed and Canceled are terminal.
const (
	StateCreated   State = "created"
	StatePlanning  State = "planning"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// PartStatus is the outcome of a part's latest attempt.
type PartStatus string

// Part outcomes
const (
	PartPending        PartStatus = "pending"
	PartSuccess        PartStatus = "success"
	PartRetryableError PartStatus = "retryable-error"
	PartFatalError     PartStatus = "fatal-error"
)

// ObjectTarget identifies the remote object (and multipart upload) a part belongs to.
type ObjectTarget struct {
	// Bucket is the bucket name
	Bucket string

	// Key is the object key
	Key string

	// UploadID is the multipart upload id; empty for downloads
	UploadID string

	// ContentType is sent when the upload is created
	ContentType string

	// Metadata is user-defined metadata sent when the upload is created
	Metadata map[string]string
}

// PartDescriptor describes one part handed to a PartTransferClient.
type PartDescriptor struct {
	ObjectTarget

	// Number is the 1-based part number
	Number int

	// Offset is the part's first byte within the object
	Offset int64

	// Length is the part size in bytes
	Length int64

	// Attempt is the 1-based attempt counter for this call
	Attempt int
}

// Range returns the inclusive HTTP byte range for the part, e.g. "bytes=0-99".
// It returns the empty string for a zero-length part.
func (p PartDescriptor) Range() string {
	if p.Length <= 0 {
		return ""
	}
	return fmt.Sprintf("bytes=%d-%d", p.Offset, p.Offset+p.Length-1)
}

// CompletedPart is the acknowledgement data for an uploaded part.
type CompletedPart struct {
	// Number is the 1-based part number
	Number int

	// ETag is the entity tag returned by the service
	ETag string
}

// ObjectInfo contains the metadata the engine needs about a remote object.
type ObjectInfo struct {
	// Size is the object size in bytes
	Size int64

	// ETag is the entity tag for the object
	ETag string

	// ContentType is the MIME type of the object
	ContentType string

	// LastModified is when the object was last modified
	LastModified time.Time
}

// TransferRequest describes an object to move. It must not be mutated once
// submitted to a Manager.
type TransferRequest struct {
	// Bucket is the bucket name
	Bucket string

	// Key is the object key
	Key string

	// FilePath is a local file used as the upload source or download destination
	FilePath string

	// Body is the upload source when FilePath is empty. An io.ReaderAt with a
	// known Size is sectioned per part; any other reader is read sequentially.
	Body io.Reader

	// Size is the declared object size; nil when unknown
	Size *int64

	// ContentType is the MIME type; sniffed from the source when empty
	ContentType string

	// Metadata is user-defined metadata for uploads
	Metadata map[string]string

	// PartSize overrides the configured minimum part size for this request
	PartSize int64

	// Concurrency overrides the configured concurrency for this request
	Concurrency int

	// Ext carries caller-attached extension values. They are copied into the
	// command's extension data when the command is created; the request's own
	// bag is never written by the engine.
	Ext *extdata.Data
}

// ProgressSnapshot is an immutable progress event.
type ProgressSnapshot struct {
	// Increment is the number of newly transferred bytes since the previous event
	Increment int64

	// Cumulative is the total number of bytes transferred so far
	Cumulative int64

	// Total is the object size, UnknownSize until discovered
	Total int64

	// Compensation is the number of bytes already reported before a part's
	// retry restarted its read; those bytes are excluded from Increment
	Compensation int64

	// SourcePath is the local file involved, if any
	SourcePath string
}

// HasTotal reports whether the object size is known.
func (s ProgressSnapshot) HasTotal() bool {
	return s.Total >= 0
}

// Result is the terminal outcome of a transfer command.
type Result struct {
	// CommandID identifies the command
	CommandID string

	// State is the terminal state
	State State

	// Err is the causing error for Failed and Canceled commands
	Err error

	// Bytes is the number of bytes transferred
	Bytes int64

	// ETag is the entity tag of the completed upload
	ETag string

	// Parts is the number of planned parts
	Parts int

	// Duration is how long the command ran
	Duration time.Duration
}

// ProgressTracker defines the callback interface for tracking transfer progress.
// Calls are serialized per command.
type ProgressTracker interface {
	// Update is called with every progress event
	Update(snapshot ProgressSnapshot)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails or is canceled
	Error(err error)
}

// PartTransferClient is the object-storage capability the engine drives.
// Implementations must be safe for concurrent use.
type PartTransferClient interface {
	// CreateMultipartUpload starts a multipart upload and returns its id
	CreateMultipartUpload(ctx context.Context, target ObjectTarget) (string, error)

	// UploadPart sends one part and returns its entity tag
	UploadPart(ctx context.Context, part PartDescriptor, body io.ReadSeeker) (string, error)

	// DownloadPart returns the body of one part's byte range
	DownloadPart(ctx context.Context, part PartDescriptor) (io.ReadCloser, error)

	// CompleteMultipartUpload acknowledges every part, ordered by part number,
	// and returns the object's entity tag
	CompleteMultipartUpload(ctx context.Context, target ObjectTarget, parts []CompletedPart) (string, error)

	// AbortMultipartUpload abandons the upload and its stored parts
	AbortMultipartUpload(ctx context.Context, target ObjectTarget) error

	// HeadObject returns object metadata
	HeadObject(ctx context.Context, target ObjectTarget) (ObjectInfo, error)

	// Endpoint identifies the destination used for clock-offset caching
	Endpoint() string

	// SetClockOffset sets the offset added to the local clock when signing
	// subsequent requests
	SetClockOffset(offset time.Duration) error
}

// PartInfo is a point-in-time view of one part of a command.
type PartInfo struct {
	// Number is the 1-based part number
	Number int

	// Offset is the part's first byte within the object
	Offset int64

	// Length is the part size in bytes
	Length int64

	// Attempts is the number of attempts started so far
	Attempts int

	// Status is the outcome of the latest attempt
	Status PartStatus

	// ETag is the entity tag of an uploaded part
	ETag string
}
