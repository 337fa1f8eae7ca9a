package s3client

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// offsetSigner signs requests as if the local clock were shifted by offset.
type offsetSigner struct {
	next   s3.HTTPSignerV4
	offset atomic.Int64
}

func newOffsetSigner(next s3.HTTPSignerV4) *offsetSigner {
	return &offsetSigner{next: next}
}

func (s *offsetSigner) SignHTTP(
	ctx context.Context,
	credentials aws.Credentials,
	r *http.Request,
	payloadHash string,
	service string,
	region string,
	signingTime time.Time,
	optFns ...func(*v4.SignerOptions),
) error {
	return s.next.SignHTTP(ctx, credentials, r, payloadHash, service, region, signingTime.Add(s.Offset()), optFns...)
}

func (s *offsetSigner) SetOffset(offset time.Duration) {
	s.offset.Store(int64(offset))
}

func (s *offsetSigner) Offset() time.Duration {
	return time.Duration(s.offset.Load())
}
