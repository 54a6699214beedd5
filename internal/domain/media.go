package domain

import (
	"path/filepath"
	"strings"
)

// ImageHandle is an opaque reference to a stored image, resolvable to a URL
// and readable as an object stream by the file repository.
type ImageHandle string

func (h ImageHandle) IsZero() bool {
	return h == ""
}

// MediaRecord is one product-scoped entry pairing an original image with its
// optional watermarked copy and a per-image SKU. Identity is positional: a
// record is addressed by its index inside the ordered per-product list.
type MediaRecord struct {
	OriginalRef     ImageHandle `json:"attachment_path"`
	WatermarkRef    ImageHandle `json:"watermark_path,omitempty"`
	Filename        string      `json:"filename"`
	FilesizeDisplay string      `json:"filesize"`
	SKU             string      `json:"sku"`
}

// HasWatermark reports whether a successfully rendered watermark has been
// persisted for this record. There is no in-progress state on the record.
func (r MediaRecord) HasWatermark() bool {
	return !r.WatermarkRef.IsZero()
}

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
)

// FormatFromContentType maps an upload content type onto a supported raster
// format. The empty format means the type is not supported.
func FormatFromContentType(contentType string) ImageFormat {
	switch {
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return FormatJPEG
	case strings.Contains(contentType, "png"):
		return FormatPNG
	case strings.Contains(contentType, "gif"):
		return FormatGIF
	default:
		return ""
	}
}

// FormatFromPath derives the raster format from a file name or storage key.
func FormatFromPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".gif":
		return FormatGIF
	default:
		return ""
	}
}

func (f ImageFormat) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

type Anchor string

const (
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
	AnchorCenter      Anchor = "center"
)

type WatermarkType string

const (
	WatermarkText  WatermarkType = "text"
	WatermarkImage WatermarkType = "image"
)

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultGalleryPage   = 15
)
