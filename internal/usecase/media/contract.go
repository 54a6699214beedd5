package media

import (
	"context"
	"io"

	"product-media-manager/internal/domain"
	"product-media-manager/internal/watermark"

	"github.com/wb-go/wbf/retry"
)

type metaRepository interface {
	GetMediaBlob(ctx context.Context, productID int64) ([]byte, error)
	SetMediaBlob(ctx context.Context, productID int64, data []byte) error
	DeleteMediaBlob(ctx context.Context, productID int64) error
	GetAllSettings(ctx context.Context) (map[string]string, error)
	SetSetting(ctx context.Context, name, value string) error
}

type fileRepository interface {
	SaveOriginal(ctx context.Context, productID int64, filename string, data io.Reader, size int64, contentType string) (domain.ImageHandle, error)
	SaveWatermark(ctx context.Context, original domain.ImageHandle, data []byte, contentType string) (domain.ImageHandle, error)
	GetObject(ctx context.Context, handle domain.ImageHandle) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, handle domain.ImageHandle) error
	ResolveURL(handle domain.ImageHandle) string
}

type taskProducer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

type renderer interface {
	Render(source []byte, format domain.ImageFormat, cfg watermark.Config, overlay []byte) ([]byte, error)
}
