package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/backmassage/dicommake/internal/compress"
	"github.com/backmassage/dicommake/internal/dcm"
	"github.com/backmassage/dicommake/internal/mapping"
	"github.com/backmassage/dicommake/internal/raster"
)

// Error classes reported by [Classify].
const (
	ClassCardinality = "cardinality"
	ClassDecode      = "decode"
	ClassCompression = "compression"
	ClassIO          = "io"
	ClassCancel      = "cancel"
	ClassUnknown     = "unknown"
)

// Classify maps err to a short class name for logs and metrics. It returns
// "" for a nil error.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var ce *compress.Error
	var pe *fs.PathError
	var le *os.LinkError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassCancel
	case errors.Is(err, mapping.ErrCardinalityMismatch),
		errors.Is(err, mapping.ErrUnmatched),
		errors.Is(err, mapping.ErrDuplicateStem):
		return ClassCardinality
	case errors.Is(err, raster.ErrDecode), errors.Is(err, dcm.ErrDecode):
		return ClassDecode
	case errors.As(err, &ce):
		return ClassCompression
	case errors.As(err, &pe), errors.As(err, &le):
		return ClassIO
	}
	return ClassUnknown
}
