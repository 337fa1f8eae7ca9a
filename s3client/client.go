package s3client

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// S3API is the subset of the S3 service client used for part transfers.
// It allows the Client to be tested against a mock.
type S3API interface {
	CreateMultipartUpload(
		ctx context.Context,
		params *s3.CreateMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.CreateMultipartUploadOutput, error)

	UploadPart(
		ctx context.Context,
		params *s3.UploadPartInput,
		optFns ...func(*s3.Options),
	) (*s3.UploadPartOutput, error)

	CompleteMultipartUpload(
		ctx context.Context,
		params *s3.CompleteMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.CompleteMultipartUploadOutput, error)

	AbortMultipartUpload(
		ctx context.Context,
		params *s3.AbortMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.AbortMultipartUploadOutput, error)

	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)

	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Client transfers object parts through the S3 API.
type Client struct {
	api      S3API
	endpoint string
	signer   *offsetSigner
}

var _ transfertypes.PartTransferClient = (*Client)(nil)

// New creates a Client from the default AWS configuration and the provided
// options.
//
// Example:
//
//	client, err := s3client.New(ctx,
//	    s3client.WithRegion("us-west-2"),
//	)
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var awsCfg aws.Config
	if cfg.AWSConfig != nil {
		awsCfg = *cfg.AWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
			))
		}

		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	signer := newOffsetSigner(v4.NewSigner())
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
		o.HTTPSignerV4 = signer
		o.Retryer = aws.NopRetryer{}
	})

	return &Client{
		api:      api,
		endpoint: endpointID(cfg.Endpoint, awsCfg.Region),
		signer:   signer,
	}, nil
}

// NewWithAPI creates a Client over a custom S3API implementation.
// This is primarily used for testing with mocked clients. Clock offsets are
// recorded but only take effect on requests signed by New's signer.
func NewWithAPI(api S3API, endpoint string) *Client {
	return &Client{
		api:      api,
		endpoint: endpoint,
		signer:   newOffsetSigner(v4.NewSigner()),
	}
}

// endpointID names the destination for clock-offset caching.
func endpointID(endpoint, region string) string {
	if endpoint == "" {
		return "s3." + region + ".amazonaws.com"
	}
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return endpoint
}

// Endpoint identifies the service endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SetClockOffset shifts the signing clock of subsequent requests.
func (c *Client) SetClockOffset(offset time.Duration) error {
	c.signer.SetOffset(offset)
	return nil
}

// ClockOffset returns the offset currently applied when signing.
func (c *Client) ClockOffset() time.Duration {
	return c.signer.Offset()
}

// CreateMultipartUpload starts a multipart upload for target.
func (c *Client) CreateMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(target.Key),
	}
	if target.ContentType != "" {
		input.ContentType = aws.String(target.ContentType)
	}
	if len(target.Metadata) > 0 {
		input.Metadata = target.Metadata
	}

	out, err := c.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", mapError("createMultipartUpload", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return aws.ToString(out.UploadId), nil
}

// UploadPart sends one part of a multipart upload.
func (c *Client) UploadPart(ctx context.Context, part transfertypes.PartDescriptor, body io.ReadSeeker) (string, error) {
	out, err := c.api.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(part.Bucket),
		Key:           aws.String(part.Key),
		UploadId:      aws.String(part.UploadID),
		PartNumber:    aws.Int32(int32(part.Number)),
		ContentLength: aws.Int64(part.Length),
		Body:          body,
	})
	if err != nil {
		return "", mapError("uploadPart", err).WithBucket(part.Bucket).WithKey(part.Key).WithPart(part.Number)
	}
	return aws.ToString(out.ETag), nil
}

// DownloadPart fetches one part's byte range. The caller closes the body.
func (c *Client) DownloadPart(ctx context.Context, part transfertypes.PartDescriptor) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(part.Bucket),
		Key:    aws.String(part.Key),
	}
	if r := part.Range(); r != "" {
		input.Range = aws.String(r)
	}

	out, err := c.api.GetObject(ctx, input)
	if err != nil {
		return nil, mapError("downloadPart", err).WithBucket(part.Bucket).WithKey(part.Key).WithPart(part.Number)
	}
	return out.Body, nil
}

// CompleteMultipartUpload assembles the uploaded parts into the object.
func (c *Client) CompleteMultipartUpload(
	ctx context.Context,
	target transfertypes.ObjectTarget,
	parts []transfertypes.CompletedPart,
) (string, error) {
	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(int32(p.Number)),
		}
	}

	out, err := c.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(target.Bucket),
		Key:             aws.String(target.Key),
		UploadId:        aws.String(target.UploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return "", mapError("completeMultipartUpload", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return aws.ToString(out.ETag), nil
}

// AbortMultipartUpload abandons an upload and frees its stored parts.
func (c *Client) AbortMultipartUpload(ctx context.Context, target transfertypes.ObjectTarget) error {
	_, err := c.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(target.Bucket),
		Key:      aws.String(target.Key),
		UploadId: aws.String(target.UploadID),
	})
	if err != nil {
		return mapError("abortMultipartUpload", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return nil
}

// HeadObject returns the object's size and metadata.
func (c *Client) HeadObject(ctx context.Context, target transfertypes.ObjectTarget) (transfertypes.ObjectInfo, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(target.Key),
	})
	if err != nil {
		return transfertypes.ObjectInfo{}, mapError("headObject", err).WithBucket(target.Bucket).WithKey(target.Key)
	}
	return transfertypes.ObjectInfo{
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         aws.ToString(out.ETag),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}
