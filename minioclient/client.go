// Package minioclient implements transfertypes.PartTransferClient over the
// minio-go Core API, for S3-compatible object stores.
package minioclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// CoreAPI is the subset of minio.Core used for part transfers.
type CoreAPI interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
	GetObject(
		ctx context.Context,
		bucket, object string,
		opts minio.GetObjectOptions,
	) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

var _ CoreAPI = (*minio.Core)(nil)

// Config holds the settings used to build a Client.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Option is a functional option for configuring a Client.
type Option func(*Config)

// WithRegion sets the bucket region.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithStaticCredentials sets the access key used to sign requests.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(c *Config) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// Client transfers object parts through an S3-compatible endpoint.
type Client struct {
	core     CoreAPI
	endpoint string
}

var _ transfertypes.PartTransferClient = (*Client)(nil)

// New creates a Client for endpoint, a URL such as "https://play.min.io".
// Plain http endpoints disable TLS.
func New(endpoint string, opts ...Option) (*Client, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, errors.NewSenderError("client initialization", errors.ErrInvalidInput).
			WithMessage("invalid endpoint " + endpoint)
	}

	core, err := minio.NewCore(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure: u.Scheme != "http",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	return &Client{core: core, endpoint: u.Host}, nil
}

// NewWithCore creates a Client over a custom CoreAPI implementation.
// This is primarily used for testing.
func NewWithCore(core CoreAPI, endpoint string) *Client {
	return &Client{core: core, endpoint: endpoint}
}

// Endpoint identifies the service endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SetClockOffset is not supported: minio-go signs with the local clock.
func (c *Client) SetClockOffset(time.Duration) error {
	return errors.ErrUnsupportedOperation
}

// CreateMultipartUpload starts a multipart upload for target.
func (c *Client) CreateMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget) (string, error) {
	id, err := c.core.NewMultipartUpload(ctx, target.Bucket, target.Key, minio.PutObjectOptions{
		ContentType:  target.ContentType,
		UserMetadata: target.Metadata,
	})
	if err != nil {
		return "", mapError("createMultipartUpload", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return id, nil
}

// UploadPart sends one part of a multipart upload.
func (c *Client) UploadPart(ctx context.Context, part transfertypes.PartDescriptor, body io.ReadSeeker) (string, error) {
	out, err := c.core.PutObjectPart(ctx, part.Bucket, part.Key, part.UploadID, part.Number, body, part.Length,
		minio.PutObjectPartOptions{})
	if err != nil {
		return "", mapError("uploadPart", err).WithBucket(part.Bucket).WithKey(part.Key).WithPart(part.Number)
	}
	return out.ETag, nil
}

// DownloadPart fetches one part's byte range. The caller closes the body.
func (c *Client) DownloadPart(ctx context.Context, part transfertypes.PartDescriptor) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if part.Length > 0 {
		if err := opts.SetRange(part.Offset, part.Offset+part.Length-1); err != nil {
			return nil, errors.NewSenderError("downloadPart", err).WithBucket(part.Bucket).WithKey(part.Key).WithPart(part.Number)
		}
	}

	body, _, _, err := c.core.GetObject(ctx, part.Bucket, part.Key, opts)
	if err != nil {
		return nil, mapError("downloadPart", err).WithBucket(part.Bucket).WithKey(part.Key).WithPart(part.Number)
	}
	return body, nil
}

// CompleteMultipartUpload assembles the uploaded parts into the object.
func (c *Client) CompleteMultipartUpload(
	ctx context.Context,
	target transfertypes.ObjectTarget,
	parts []transfertypes.CompletedPart,
) (string, error) {
	completed := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: p.Number, ETag: p.ETag}
	}

	info, err := c.core.CompleteMultipartUpload(ctx, target.Bucket, target.Key, target.UploadID, completed,
		minio.PutObjectOptions{})
	if err != nil {
		return "", mapError("completeMultipartUpload", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return info.ETag, nil
}

// AbortMultipartUpload abandons an upload and frees its stored parts.
func (c *Client) AbortMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget) error {
	if err := c.core.AbortMultipartUpload(ctx, target.Bucket, target.Key, target.UploadID); err != nil {
		return mapError("abortMultipartUpload", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return nil
}

// HeadObject returns the object's size and metadata.
func (c *Client) HeadObject(ctx context.Context, target transfertypes.ObjectTarget) (transfertypes.ObjectInfo, error) {
	info, err := c.core.StatObject(ctx, target.Bucket, target.Key, minio.StatObjectOptions{})
	if err != nil {
		return transfertypes.ObjectInfo{}, mapError("headObject", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return transfertypes.ObjectInfo{
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// mapError classifies a minio-go error for the transfer engine.
func mapError(op string, err error) *errors.Error {
	if errors.Is(err, context.Canceled) {
		return errors.NewError(op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewTransientError(op, err)
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "RequestTimeTooSkewed", "RequestExpired":
		return errors.NewClockSkewError(op, time.Time{}, err)
	case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout", "XMinioServerNotInitialized":
		return errors.NewTransientError(op, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "NoSuchBucket", "NoSuchKey",
		"NoSuchUpload", "InvalidBucketName", "InvalidArgument", "InvalidPart", "InvalidPartOrder",
		"EntityTooSmall", "EntityTooLarge", "PreconditionFailed":
		return errors.NewSenderError(op, err)
	}

	switch status := resp.StatusCode; {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return errors.NewTransientError(op, err)
	case status >= http.StatusBadRequest:
		return errors.NewSenderError(op, err)
	}
	return errors.NewError(op, err)
}
