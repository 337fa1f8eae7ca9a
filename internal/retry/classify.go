package retry

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

// Decision is the outcome of classifying a part failure.
type Decision int

const (
	// NonRetryable failures stop the command immediately
	NonRetryable Decision = iota
	// Retryable failures are attempted again up to the attempt ceiling
	Retryable
)

// String returns a human-readable name for the decision.
func (d Decision) String() string {
	if d == Retryable {
		return "retryable"
	}
	return "non-retryable"
}

// Classify decides whether err may be retried. Sender, capacity, timeout and
// cancellation failures are final; everything else, including network
// timeouts and unclassified errors, is retryable.
func Classify(err error) Decision {
	if err == nil {
		return NonRetryable
	}
	if errors.Is(err, context.Canceled) {
		return NonRetryable
	}
	if errors.CodeOf(err).Retryable() {
		return Retryable
	}
	return NonRetryable
}

// IsClockSkew reports whether err is a signature timestamp rejection and
// returns the server time it carried, if any.
func IsClockSkew(err error) (*errors.Error, bool) {
	var e *errors.Error
	if errors.As(err, &e) && e.Code == errors.CodeClockSkew {
		return e, true
	}
	return nil, false
}
