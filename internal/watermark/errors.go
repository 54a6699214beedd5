package watermark

import "errors"

var (
	ErrFileNotFound      = errors.New("source image file not found")
	ErrInvalidImage      = errors.New("invalid image file")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrWatermarkDisabled = errors.New("watermarking is disabled")
	ErrEncodingFailed    = errors.New("failed to encode watermarked image")
	ErrOverlayNotFound   = errors.New("watermark overlay image not found")
)
