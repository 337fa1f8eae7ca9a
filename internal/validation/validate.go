package validation

import (
	"fmt"
	"net/netip"
	"path"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

const (
	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataTotalLength = 2048
)

var reservedMetadataPrefixes = []string{"aws:", "x-amz-", "x-amz:"}

// ValidateUpload checks an upload request.
func ValidateUpload(req *transfertypes.TransferRequest) error {
	if err := validateCommon(req); err != nil {
		return err
	}
	if req.FilePath == "" && req.Body == nil {
		return invalid("validateUpload", req, "upload requires a file path or a body")
	}
	if req.Size != nil && *req.Size < 0 && req.Body == nil {
		return invalid("validateUpload", req, "a file upload cannot declare a negative size")
	}
	return ValidateMetadata(req.Metadata)
}

// ValidateDownload checks a download request.
func ValidateDownload(req *transfertypes.TransferRequest) error {
	if err := validateCommon(req); err != nil {
		return err
	}
	if req.Body != nil {
		return invalid("validateDownload", req, "a download cannot have a body")
	}
	return nil
}

func validateCommon(req *transfertypes.TransferRequest) error {
	if req == nil {
		return errors.NewSenderError("validateRequest", errors.ErrInvalidInput).
			WithMessage("request cannot be nil")
	}
	if err := ValidateBucketName(req.Bucket); err != nil {
		return err
	}
	if err := ValidateObjectKey(req.Key); err != nil {
		return err
	}
	if req.PartSize < 0 {
		return invalid("validateRequest", req, "part size cannot be negative")
	}
	if req.Concurrency < 0 {
		return invalid("validateRequest", req, "concurrency cannot be negative")
	}
	return nil
}

func invalid(op string, req *transfertypes.TransferRequest, msg string) error {
	return errors.NewSenderError(op, errors.ErrInvalidInput).
		WithBucket(req.Bucket).
		WithKey(req.Key).
		WithMessage(msg)
}

// ValidateBucketName checks S3 bucket naming rules.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return errors.NewSenderError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(msg)
	}

	if bucket == "" {
		return fail("bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}
	for _, c := range bucket {
		if !isBucketChar(c) {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}
	if first, last := bucket[0], bucket[len(bucket)-1]; !isAlnum(first) || !isAlnum(last) {
		return fail("bucket name must start and end with a letter or number")
	}
	if strings.Contains(bucket, "..") {
		return fail("bucket name cannot contain two adjacent periods")
	}
	if addr, err := netip.ParseAddr(bucket); err == nil && addr.Is4() {
		return fail("bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ValidateObjectKey rejects empty, oversized, traversing and control-character keys.
func ValidateObjectKey(key string) error {
	fail := func(msg string) error {
		return errors.NewSenderError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(msg)
	}

	switch {
	case key == "":
		return fail("object key cannot be empty")
	case len(key) > maxKeyLength:
		return fail(fmt.Sprintf("object key cannot exceed %d bytes", maxKeyLength))
	case hasPathTraversal(key):
		return fail("object key cannot contain path traversal sequences")
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return fail("object key cannot contain control characters")
	}
	return nil
}

// ValidateMetadata checks user metadata keys and the combined size.
func ValidateMetadata(metadata map[string]string) error {
	fail := func(msg string) error {
		return errors.NewSenderError("validateMetadata", errors.ErrInvalidInput).WithMessage(msg)
	}

	total := 0
	for k, v := range metadata {
		if k == "" {
			return fail("metadata key cannot be empty")
		}
		if len(k) > maxMetadataKeyLength {
			return fail(fmt.Sprintf("metadata key cannot exceed %d characters", maxMetadataKeyLength))
		}
		lower := strings.ToLower(k)
		for _, prefix := range reservedMetadataPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return fail("metadata key cannot start with reserved prefix: " + prefix)
			}
		}
		for _, c := range k {
			if c <= ' ' || c > '~' {
				return fail("metadata key can only contain printable ASCII characters")
			}
		}
		if strings.IndexFunc(v, func(r rune) bool { return unicode.IsControl(r) && r != '\t' }) >= 0 {
			return fail("metadata value cannot contain control characters")
		}
		total += len(k) + len(v)
	}
	if total > maxMetadataTotalLength {
		return fail(fmt.Sprintf("metadata cannot exceed %d bytes", maxMetadataTotalLength))
	}
	return nil
}

func isBucketChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '.' || c == '-'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func hasPathTraversal(key string) bool {
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return true
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return true
		}
	}
	return strings.HasPrefix(path.Clean(key), "../")
}
