package s3client

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

// Service error codes grouped by classification.
var (
	clockSkewCodes = map[string]bool{
		"RequestTimeTooSkewed": true,
		"RequestExpired":       true,
	}

	transientCodes = map[string]bool{
		"SlowDown":            true,
		"InternalError":       true,
		"ServiceUnavailable":  true,
		"RequestTimeout":      true,
		"Throttling":          true,
		"ThrottlingException": true,
	}

	senderCodes = map[string]bool{
		"AccessDenied":          true,
		"InvalidAccessKeyId":    true,
		"SignatureDoesNotMatch": true,
		"NoSuchBucket":          true,
		"NoSuchKey":             true,
		"NotFound":              true,
		"NoSuchUpload":          true,
		"InvalidBucketName":     true,
		"InvalidArgument":       true,
		"InvalidRequest":        true,
		"InvalidPart":           true,
		"InvalidPartOrder":      true,
		"EntityTooSmall":        true,
		"EntityTooLarge":        true,
		"PreconditionFailed":    true,
		"MethodNotAllowed":      true,
	}
)

// mapError classifies an SDK error for the transfer engine.
func mapError(op string, err error) *errors.Error {
	if errors.Is(err, context.Canceled) {
		return errors.NewError(op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewTransientError(op, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case clockSkewCodes[code]:
			return errors.NewClockSkewError(op, serverTime(err), err)
		case transientCodes[code]:
			return errors.NewTransientError(op, err)
		case senderCodes[code]:
			return errors.NewSenderError(op, err)
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusRequestTimeout,
			status == http.StatusTooManyRequests,
			status >= http.StatusInternalServerError:
			return errors.NewTransientError(op, err)
		case status >= http.StatusBadRequest:
			return errors.NewSenderError(op, err)
		}
	}

	return errors.NewError(op, err)
}

// serverTime reads the service clock from the response Date header.
func serverTime(err error) time.Time {
	var respErr *smithyhttp.ResponseError
	if !errors.As(err, &respErr) || respErr.Response == nil || respErr.Response.Response == nil {
		return time.Time{}
	}
	t, perr := http.ParseTime(respErr.Response.Header.Get("Date"))
	if perr != nil {
		return time.Time{}
	}
	return t
}
