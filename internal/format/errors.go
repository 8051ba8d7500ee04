package format

import "errors"

var (
	// ErrTruncated indicates the image lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated image")
	// ErrBadSize indicates the image length is not one of ValidSizes.
	ErrBadSize = errors.New("format: unsupported image size")
)
