package s3transfer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

func newTestManager(t *testing.T, client transfertypes.PartTransferClient, opts ...transfertypes.Option) *Manager {
	t.Helper()
	base := []transfertypes.Option{
		WithMinPartSize(4),
		WithBackoffTable(0),
	}
	m, err := New(client, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func wait(t *testing.T, h *Handle) transfertypes.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := h.Wait(ctx)
	require.NoError(t, err)
	return r
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestNew(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("invalid option", func(t *testing.T) {
		_, err := New(testutil.NewMockPartClient(nil), WithConcurrency(0))
		require.Error(t, err)
		assert.True(t, errors.IsSender(err))
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("max part below min part", func(t *testing.T) {
		_, err := New(testutil.NewMockPartClient(nil), WithMinPartSize(10), WithMaxPartSize(5))
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("defaults", func(t *testing.T) {
		m, err := New(testutil.NewMockPartClient(nil))
		require.NoError(t, err)

		cfg := m.Config()
		assert.Equal(t, transfertypes.DefaultMinPartSize, cfg.MinPartSize)
		assert.Equal(t, transfertypes.DefaultMaxParts, cfg.MaxParts)
		assert.Equal(t, transfertypes.DefaultConcurrency, cfg.Concurrency)
		assert.Equal(t, transfertypes.DefaultMaxAttempts, cfg.MaxAttempts)
		assert.Equal(t, transfertypes.DefaultBackoffTable, cfg.BackoffTable)
		assert.True(t, m.ClockSkewCorrectionEnabled())
	})

	t.Run("options applied", func(t *testing.T) {
		m, err := New(testutil.NewMockPartClient(nil),
			WithConcurrency(2),
			WithMaxAttempts(7),
			WithClockSkewCorrection(false),
			WithPartTimeout(time.Second),
		)
		require.NoError(t, err)

		cfg := m.Config()
		assert.Equal(t, 2, cfg.Concurrency)
		assert.Equal(t, 7, cfg.MaxAttempts)
		assert.Equal(t, time.Second, cfg.PartTimeout)
		assert.False(t, m.ClockSkewCorrectionEnabled())
	})
}

func TestManager_UploadFile(t *testing.T) {
	memFS := billy.NewFS(memfs.New())
	content := []byte("plain text content spread over several parts\n")
	require.NoError(t, memFS.MkdirAll("/data", 0o755))
	require.NoError(t, memFS.WriteFile("/data/notes.txt", content, 0o644))

	client := testutil.NewMockPartClient(nil)
	var target transfertypes.ObjectTarget
	client.CreateMultipartUploadFunc = func(_ context.Context, tg transfertypes.ObjectTarget) (string, error) {
		target = tg
		return "upload-file", nil
	}
	tracker := &testutil.RecordingTracker{}
	m := newTestManager(t, client, WithFilesystem(memFS), WithProgressTracker(tracker), WithMinPartSize(16))

	h, err := m.Upload(context.Background(), &transfertypes.TransferRequest{
		Bucket:   "my-bucket",
		Key:      "notes.txt",
		FilePath: "/data/notes.txt",
		Metadata: map[string]string{"owner": "ops"},
	})
	require.NoError(t, err)

	r := wait(t, h)
	require.NoError(t, r.Err)
	assert.Equal(t, transfertypes.StateCompleted, r.State)
	assert.Equal(t, int64(len(content)), r.Bytes)
	assert.Equal(t, 3, r.Parts)
	assert.Equal(t, content, client.Assembled())

	assert.Equal(t, "my-bucket", target.Bucket)
	assert.True(t, strings.HasPrefix(target.ContentType, "text/plain"), target.ContentType)
	assert.Equal(t, "ops", target.Metadata["owner"])

	id, err := h.Extensions().Get(transfertypes.ExtUploadID)
	require.NoError(t, err)
	assert.Equal(t, "upload-file", id)

	assert.True(t, tracker.CompleteCalled())
	assert.Equal(t, int64(len(content)), testutil.SumIncrements(tracker.Updates()))
	for _, u := range tracker.Updates() {
		assert.Equal(t, "/data/notes.txt", u.SourcePath)
	}
}

func TestManager_UploadBody(t *testing.T) {
	data := testutil.RandomBytes(37, 1)

	tests := []struct {
		name string
		body io.Reader
		size *int64
	}{
		{name: "reader at with size", body: bytes.NewReader(data), size: int64Ptr(int64(len(data)))},
		{name: "stream with size", body: io.MultiReader(bytes.NewReader(data)), size: int64Ptr(int64(len(data)))},
		{name: "stream of unknown size", body: io.MultiReader(bytes.NewReader(data))},
		{name: "reader at of unknown size", body: bytes.NewReader(data), size: int64Ptr(transfertypes.UnknownSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutil.NewMockPartClient(nil)
			m := newTestManager(t, client, WithMinPartSize(8))

			h, err := m.Upload(context.Background(), &transfertypes.TransferRequest{
				Bucket: "my-bucket",
				Key:    "blob.bin",
				Body:   tt.body,
				Size:   tt.size,
			})
			require.NoError(t, err)

			r := wait(t, h)
			require.NoError(t, r.Err)
			assert.Equal(t, transfertypes.StateCompleted, r.State)
			assert.Equal(t, int64(len(data)), r.Bytes)
			assert.Equal(t, 5, r.Parts)
			assert.True(t, bytes.Equal(data, client.Assembled()))
		})
	}
}

func TestManager_UploadContentType(t *testing.T) {
	client := testutil.NewMockPartClient(nil)
	var contentType string
	client.CreateMultipartUploadFunc = func(_ context.Context, tg transfertypes.ObjectTarget) (string, error) {
		contentType = tg.ContentType
		return "u", nil
	}
	m := newTestManager(t, client)

	h, err := m.Upload(context.Background(), &transfertypes.TransferRequest{
		Bucket:      "my-bucket",
		Key:         "doc",
		Body:        strings.NewReader("<html></html>"),
		ContentType: "application/x-custom",
	})
	require.NoError(t, err)
	wait(t, h)

	assert.Equal(t, "application/x-custom", contentType)
}

func TestManager_UploadRejected(t *testing.T) {
	memFS := billy.NewFS(memfs.New())
	require.NoError(t, memFS.MkdirAll("/dir", 0o755))

	tests := []struct {
		name string
		req  *transfertypes.TransferRequest
	}{
		{name: "nil request", req: nil},
		{name: "empty bucket", req: &transfertypes.TransferRequest{Key: "k", Body: strings.NewReader("x")}},
		{name: "traversal key", req: &transfertypes.TransferRequest{Bucket: "my-bucket", Key: "a/../b", Body: strings.NewReader("x")}},
		{name: "no source", req: &transfertypes.TransferRequest{Bucket: "my-bucket", Key: "k"}},
		{name: "missing file", req: &transfertypes.TransferRequest{Bucket: "my-bucket", Key: "k", FilePath: "/missing"}},
		{name: "directory", req: &transfertypes.TransferRequest{Bucket: "my-bucket", Key: "k", FilePath: "/dir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutil.NewMockPartClient(nil)
			m := newTestManager(t, client, WithFilesystem(memFS))

			h, err := m.Upload(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, h)
			assert.True(t, errors.IsSender(err))
			assert.Zero(t, client.Calls("CreateMultipartUpload"))
		})
	}
}

func TestManager_DownloadToWriterAt(t *testing.T) {
	object := testutil.RandomBytes(29, 2)
	client := testutil.NewMockPartClient(object)
	m := newTestManager(t, client, WithMinPartSize(10))

	dst := &testutil.WriteAtBuffer{}
	h, err := m.Download(context.Background(), &transfertypes.TransferRequest{
		Bucket: "my-bucket",
		Key:    "blob.bin",
	}, dst)
	require.NoError(t, err)

	r := wait(t, h)
	require.NoError(t, r.Err)
	assert.Equal(t, transfertypes.StateCompleted, r.State)
	assert.Equal(t, 3, r.Parts)
	assert.Equal(t, 1, client.Calls("HeadObject"))
	assert.True(t, bytes.Equal(object, dst.Bytes()))
}

func TestManager_DownloadToFile(t *testing.T) {
	object := testutil.RandomBytes(25, 3)
	client := testutil.NewMockPartClient(object)
	memFS := billy.NewFS(memfs.New())
	m := newTestManager(t, client, WithFilesystem(memFS), WithMinPartSize(8))

	h, err := m.Download(context.Background(), &transfertypes.TransferRequest{
		Bucket:   "my-bucket",
		Key:      "blob.bin",
		FilePath: "/out/blob.bin",
		Size:     int64Ptr(int64(len(object))),
	}, nil)
	require.NoError(t, err)

	r := wait(t, h)
	require.NoError(t, r.Err)
	assert.Zero(t, client.Calls("HeadObject"))

	got, err := memFS.ReadFile("/out/blob.bin")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(object, got))
}

func TestManager_DownloadFailureRemovesFile(t *testing.T) {
	client := testutil.NewMockPartClient(testutil.RandomBytes(16, 4))
	client.DownloadPartFunc = func(context.Context, transfertypes.PartDescriptor) (io.ReadCloser, error) {
		return nil, errors.NewSenderError("downloadPart", errors.ErrInvalidInput)
	}
	memFS := billy.NewFS(memfs.New())
	m := newTestManager(t, client, WithFilesystem(memFS))

	h, err := m.Download(context.Background(), &transfertypes.TransferRequest{
		Bucket:   "my-bucket",
		Key:      "blob.bin",
		FilePath: "/out/blob.bin",
	}, nil)
	require.NoError(t, err)

	r := wait(t, h)
	assert.Equal(t, transfertypes.StateFailed, r.State)
	assert.True(t, errors.IsSender(r.Err))

	exists, err := memFS.Exists("/out/blob.bin")
	require.NoError(t, err)
	assert.False(t, exists, "partial file should be removed")
}

func TestManager_DownloadRequiresDestination(t *testing.T) {
	m := newTestManager(t, testutil.NewMockPartClient(nil))

	_, err := m.Download(context.Background(), &transfertypes.TransferRequest{
		Bucket: "my-bucket",
		Key:    "blob.bin",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestManager_DisableClockSkewCorrection(t *testing.T) {
	m := newTestManager(t, testutil.NewMockPartClient(nil))

	outer := m.DisableClockSkewCorrection()
	inner := m.DisableClockSkewCorrection()
	assert.False(t, m.ClockSkewCorrectionEnabled())

	inner.Release()
	assert.False(t, m.ClockSkewCorrectionEnabled())

	outer.Release()
	assert.True(t, m.ClockSkewCorrectionEnabled())

	outer.Release()
	assert.True(t, m.ClockSkewCorrectionEnabled())
}

func TestManager_ResetClockSkew(t *testing.T) {
	client := testutil.NewMockPartClient(nil)
	serverTime := time.Now().Add(time.Hour)
	var failed bool
	client.UploadPartFunc = func(_ context.Context, p transfertypes.PartDescriptor, body io.ReadSeeker) (string, error) {
		if !failed {
			failed = true
			return "", errors.NewClockSkewError("uploadPart", serverTime, io.ErrUnexpectedEOF)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		client.StorePart(p.Number, data)
		return testutil.ETag(p.Number), nil
	}
	m := newTestManager(t, client, WithConcurrency(1))

	h, err := m.Upload(context.Background(), &transfertypes.TransferRequest{
		Bucket: "my-bucket",
		Key:    "k",
		Body:   strings.NewReader("abc"),
	})
	require.NoError(t, err)
	r := wait(t, h)
	require.NoError(t, r.Err)

	offset, ok := m.ClockOffset(client.Endpoint())
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), offset.Seconds(), 60)
	assert.NotEmpty(t, client.Offsets())

	m.ResetClockSkew(client.Endpoint())
	_, ok = m.ClockOffset(client.Endpoint())
	assert.False(t, ok)
}

func TestHandle_Cancel(t *testing.T) {
	client := testutil.NewMockPartClient(nil)
	entered := make(chan struct{})
	var once sync.Once
	client.UploadPartFunc = func(ctx context.Context, _ transfertypes.PartDescriptor, _ io.ReadSeeker) (string, error) {
		once.Do(func() { close(entered) })
		<-ctx.Done()
		return "", ctx.Err()
	}
	m := newTestManager(t, client)

	h, err := m.Upload(context.Background(), &transfertypes.TransferRequest{
		Bucket: "my-bucket",
		Key:    "k",
		Body:   bytes.NewReader(testutil.RandomBytes(12, 5)),
		Size:   int64Ptr(12),
	})
	require.NoError(t, err)

	<-entered
	_, ok := h.Result()
	assert.False(t, ok)
	assert.Equal(t, transfertypes.StateRunning, h.State())

	h.Cancel()
	r := wait(t, h)
	assert.Equal(t, transfertypes.StateCanceled, r.State)
	assert.True(t, errors.IsCanceled(r.Err))
	assert.Equal(t, 1, client.Calls("AbortMultipartUpload"))

	again, ok := h.Result()
	require.True(t, ok)
	assert.Equal(t, r, again)
}
