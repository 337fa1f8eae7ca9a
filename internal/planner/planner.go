package planner

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// Part is a planned byte range.
type Part struct {
	// Number is the 1-based part number
	Number int

	// Offset is the first byte of the part within the object
	Offset int64

	// Length is the part size in bytes
	Length int64
}

// Limits bound the parts a plan may contain.
type Limits struct {
	MinPartSize int64
	MaxPartSize int64
	MaxParts    int
}

// DefaultLimits returns the S3 multipart limits.
func DefaultLimits() Limits {
	return Limits{
		MinPartSize: transfertypes.DefaultMinPartSize,
		MaxPartSize: transfertypes.DefaultMaxPartSize,
		MaxParts:    transfertypes.DefaultMaxParts,
	}
}

func (l Limits) validate() error {
	switch {
	case l.MinPartSize <= 0:
		return errors.NewSenderError("plan", errors.ErrInvalidInput).WithMessage("minimum part size must be positive")
	case l.MaxParts <= 0:
		return errors.NewSenderError("plan", errors.ErrInvalidInput).WithMessage("maximum part count must be positive")
	case l.MaxPartSize < l.MinPartSize:
		return errors.NewSenderError("plan", errors.ErrInvalidInput).WithMessage("maximum part size is below the minimum")
	}
	return nil
}

// Capacity returns the largest object the limits can describe.
func (l Limits) Capacity() int64 {
	return l.MaxPartSize * int64(l.MaxParts)
}

// Plan splits total bytes using minPartSize, maxParts and the default
// maximum part size.
func Plan(total, minPartSize int64, maxParts int) ([]Part, error) {
	limits := DefaultLimits()
	limits.MinPartSize = minPartSize
	limits.MaxParts = maxParts
	if limits.MaxPartSize < minPartSize {
		limits.MaxPartSize = minPartSize
	}
	return PlanWithLimits(total, limits)
}

// PartSize returns the smallest part size no lower than the minimum that
// fits total into at most MaxParts parts.
func PartSize(total int64, limits Limits) (int64, error) {
	if err := limits.validate(); err != nil {
		return 0, err
	}
	if total < 0 {
		return 0, errors.NewSenderError("plan", errors.ErrInvalidInput).WithMessage("object size cannot be negative")
	}

	size := ceilDiv(total, int64(limits.MaxParts))
	if size < limits.MinPartSize {
		size = limits.MinPartSize
	}
	if size > limits.MaxPartSize {
		return 0, capacityError(total, limits)
	}
	return size, nil
}

// PlanWithLimits splits total bytes into contiguous parts. A zero-byte
// object yields a single zero-length part.
func PlanWithLimits(total int64, limits Limits) ([]Part, error) {
	size, err := PartSize(total, limits)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []Part{{Number: 1}}, nil
	}

	count := ceilDiv(total, size)
	parts := make([]Part, 0, count)
	for offset, n := int64(0), 1; offset < total; offset, n = offset+size, n+1 {
		length := size
		if rest := total - offset; rest < length {
			length = rest
		}
		parts = append(parts, Part{Number: n, Offset: offset, Length: length})
	}
	return parts, nil
}

func ceilDiv(a, b int64) int64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}

func capacityError(total int64, limits Limits) error {
	return errors.NewError("plan", errors.ErrCapacityExceeded).
		WithCode(errors.CodeCapacity).
		WithMessage(fmt.Sprintf("%d bytes exceed %d parts of at most %d bytes", total, limits.MaxParts, limits.MaxPartSize))
}
