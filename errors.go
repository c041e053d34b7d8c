package psd

import "errors"

var (
	ErrTruncated              = errors.New("psd: truncated data")
	ErrSignatureMismatch      = errors.New("psd: signature mismatch")
	ErrUnsupportedVersion     = errors.New("psd: unsupported version")
	ErrInvalidLayerBounds     = errors.New("psd: invalid layer bounds")
	ErrDecodeFailed           = errors.New("psd: rle decode failed")
	ErrUnknownChannel         = errors.New("psd: unknown channel id")
	ErrPlaneSizeMismatch      = errors.New("psd: channel plane size mismatch")
	ErrUnsupportedCompression = errors.New("psd: unsupported compression")
	ErrInvalidBlockSignature  = errors.New("psd: invalid additional info block signature")
	ErrBudgetUnderrun         = errors.New("psd: additional info scan budget underrun")
)
