package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// MockPartClient is a mock implementation of transfertypes.PartTransferClient.
// Each operation can be customised through its function field; unset fields
// fall back to an in-memory object store.
type MockPartClient struct {
	CreateMultipartUploadFunc   func(context.Context, transfertypes.ObjectTarget) (string, error)
	UploadPartFunc              func(context.Context, transfertypes.PartDescriptor, io.ReadSeeker) (string, error)
	DownloadPartFunc            func(context.Context, transfertypes.PartDescriptor) (io.ReadCloser, error)
	CompleteMultipartUploadFunc func(context.Context, transfertypes.ObjectTarget, []transfertypes.CompletedPart) (string, error)
	AbortMultipartUploadFunc    func(context.Context, transfertypes.ObjectTarget) error
	HeadObjectFunc              func(context.Context, transfertypes.ObjectTarget) (transfertypes.ObjectInfo, error)
	SetClockOffsetFunc          func(time.Duration) error

	// EndpointURL is returned by Endpoint
	EndpointURL string

	// Object is the stored object served by the default download and head
	// implementations
	Object []byte

	mu        sync.Mutex
	parts     map[int][]byte
	calls     map[string]int
	attempts  map[int]int
	started   []int
	completed []transfertypes.CompletedPart
	offsets   []time.Duration
}

// NewMockPartClient creates a mock serving object for downloads.
func NewMockPartClient(object []byte) *MockPartClient {
	return &MockPartClient{
		EndpointURL: "https://mock.local",
		Object:      object,
	}
}

func (m *MockPartClient) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

func (m *MockPartClient) recordPart(number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = make(map[int]int)
	}
	if m.attempts[number] == 0 {
		m.started = append(m.started, number)
	}
	m.attempts[number]++
}

// CreateMultipartUpload mocks starting a multipart upload.
func (m *MockPartClient) CreateMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget) (string, error) {
	m.record("CreateMultipartUpload")
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, target)
	}
	return "upload-1", nil
}

// UploadPart mocks sending one part. The default implementation reads the
// whole body and stores it.
func (m *MockPartClient) UploadPart(ctx context.Context, part transfertypes.PartDescriptor, body io.ReadSeeker) (string, error) {
	m.record("UploadPart")
	m.recordPart(part.Number)
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, part, body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.StorePart(part.Number, data)
	return ETag(part.Number), nil
}

// StorePart records data as the body of part number.
func (m *MockPartClient) StorePart(number int, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parts == nil {
		m.parts = make(map[int][]byte)
	}
	m.parts[number] = data
}

// DownloadPart mocks fetching one part's byte range from Object.
func (m *MockPartClient) DownloadPart(ctx context.Context, part transfertypes.PartDescriptor) (io.ReadCloser, error) {
	m.record("DownloadPart")
	m.recordPart(part.Number)
	if m.DownloadPartFunc != nil {
		return m.DownloadPartFunc(ctx, part)
	}
	end := part.Offset + part.Length
	if end > int64(len(m.Object)) {
		return nil, fmt.Errorf("range %s beyond object of %d bytes", part.Range(), len(m.Object))
	}
	return io.NopCloser(bytes.NewReader(m.Object[part.Offset:end])), nil
}

// CompleteMultipartUpload mocks acknowledging the uploaded parts.
func (m *MockPartClient) CompleteMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget, parts []transfertypes.CompletedPart) (string, error) {
	m.record("CompleteMultipartUpload")
	m.mu.Lock()
	m.completed = append([]transfertypes.CompletedPart(nil), parts...)
	m.mu.Unlock()
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, target, parts)
	}
	return "object-etag", nil
}

// AbortMultipartUpload mocks abandoning an upload.
func (m *MockPartClient) AbortMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget) error {
	m.record("AbortMultipartUpload")
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, target)
	}
	return nil
}

// HeadObject mocks fetching object metadata for Object.
func (m *MockPartClient) HeadObject(ctx context.Context, target transfertypes.ObjectTarget) (transfertypes.ObjectInfo, error) {
	m.record("HeadObject")
	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, target)
	}
	return transfertypes.ObjectInfo{Size: int64(len(m.Object)), ETag: "object-etag"}, nil
}

// Endpoint returns EndpointURL.
func (m *MockPartClient) Endpoint() string {
	return m.EndpointURL
}

// SetClockOffset records the offset.
func (m *MockPartClient) SetClockOffset(offset time.Duration) error {
	m.mu.Lock()
	m.offsets = append(m.offsets, offset)
	m.mu.Unlock()
	if m.SetClockOffsetFunc != nil {
		return m.SetClockOffsetFunc(offset)
	}
	return nil
}

// Calls returns how many times op was invoked.
func (m *MockPartClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Attempts returns how many times part number was attempted.
func (m *MockPartClient) Attempts(number int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[number]
}

// Started returns the part numbers attempted at least once, in first-attempt order.
func (m *MockPartClient) Started() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.started...)
}

// Completed returns the parts passed to the last CompleteMultipartUpload call.
func (m *MockPartClient) Completed() []transfertypes.CompletedPart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transfertypes.CompletedPart(nil), m.completed...)
}

// Offsets returns every clock offset applied.
func (m *MockPartClient) Offsets() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.offsets...)
}

// Assembled concatenates the stored parts in part-number order.
func (m *MockPartClient) Assembled() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	numbers := make([]int, 0, len(m.parts))
	for n := range m.parts {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var out []byte
	for _, n := range numbers {
		out = append(out, m.parts[n]...)
	}
	return out
}

// ETag returns the entity tag the default UploadPart assigns to a part.
func ETag(number int) string {
	return fmt.Sprintf("\"etag-%d\"", number)
}
