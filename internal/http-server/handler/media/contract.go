package media

import (
	"context"
	"io"

	media_uc "product-media-manager/internal/usecase/media"
	"product-media-manager/internal/usecase/sequencer"
	"product-media-manager/internal/watermark"
)

type mediaUsecase interface {
	UploadImage(ctx context.Context, productID int64, filename, contentType string, size int64, file io.Reader) (media_uc.RecordView, error)
	List(ctx context.Context, productID int64) ([]media_uc.RecordView, error)
	GenerateOne(ctx context.Context, productID int64, index int) error
	GenerateBulk(ctx context.Context, productID int64, progress sequencer.ProgressFunc) (sequencer.Summary, error)
	Reorder(ctx context.Context, productID int64, order []int) error
	UpdateSKU(ctx context.Context, productID int64, index int, sku string) error
	DeleteRecord(ctx context.Context, productID int64, index int) error
	ClearAll(ctx context.Context, productID int64) error
	Gallery(ctx context.Context, productID int64, page, perPage int) (media_uc.GalleryPage, error)
	Settings(ctx context.Context) (watermark.Config, error)
	SaveSettings(ctx context.Context, cfg watermark.Config) error
}
