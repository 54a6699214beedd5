// Package media implements the product media management flows: uploading
// originals, rendering watermarked copies, reordering, SKU edits, deletion and
// the paginated watermarked gallery.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"product-media-manager/internal/domain"
	"product-media-manager/internal/mediastore"
	repoMedia "product-media-manager/internal/repository/media"
	"product-media-manager/internal/usecase/sequencer"
	"product-media-manager/internal/watermark"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type MediaUsecase struct {
	repo     metaRepository
	fileRepo fileRepository
	producer taskProducer
	renderer renderer
	logger   *zlog.Zerolog
	retries  retry.Strategy

	mu         sync.Mutex
	sequencers map[int64]*sequencer.Sequencer
	seqOpts    []sequencer.Option
}

func NewMediaUsecase(repo metaRepository, fileRepo fileRepository, producer taskProducer, renderer renderer, logger *zlog.Zerolog, retries retry.Strategy, seqOpts ...sequencer.Option) *MediaUsecase {
	return &MediaUsecase{
		repo:       repo,
		fileRepo:   fileRepo,
		producer:   producer,
		renderer:   renderer,
		logger:     logger,
		retries:    retries,
		sequencers: make(map[int64]*sequencer.Sequencer),
		seqOpts:    seqOpts,
	}
}

// RecordView is a media record resolved for API responses.
type RecordView struct {
	Index        int    `json:"index"`
	OriginalURL  string `json:"original_url"`
	WatermarkURL string `json:"watermark_url,omitempty"`
	Filename     string `json:"filename"`
	Filesize     string `json:"filesize"`
	SKU          string `json:"sku"`
	HasWatermark bool   `json:"has_watermark"`
}

// GalleryItem is one watermarked image in the public gallery.
type GalleryItem struct {
	OriginalURL  string `json:"original_url"`
	WatermarkURL string `json:"watermark_url"`
	SKU          string `json:"sku"`
	Filename     string `json:"filename"`
	Filesize     string `json:"filesize"`
}

// GalleryPage is one page of the watermarked gallery plus the unsliced total,
// so clients can render pagination without a second round trip.
type GalleryPage struct {
	Items   []GalleryItem `json:"items"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

// UploadImage stores a new original, appends its record to the product's list
// and queues best-effort watermark generation. The record index is returned so
// the caller can address the record immediately.
func (u *MediaUsecase) UploadImage(ctx context.Context, productID int64, filename, contentType string, size int64, file io.Reader) (RecordView, error) {
	if domain.FormatFromContentType(contentType) == "" {
		return RecordView{}, watermark.ErrUnsupportedFormat
	}

	originalRef, err := u.fileRepo.SaveOriginal(ctx, productID, filename, file, size, contentType)
	if err != nil {
		u.logger.Error().Err(err).Str("filename", filename).Msg("Failed to save original image")
		return RecordView{}, fmt.Errorf("failed to save image: %w", err)
	}

	list, err := u.loadList(ctx, productID)
	if err != nil {
		return RecordView{}, err
	}

	index := list.Append(domain.MediaRecord{
		OriginalRef:     originalRef,
		Filename:        filename,
		FilesizeDisplay: humanize.Bytes(uint64(size)),
	})

	if err := u.saveList(ctx, productID, list); err != nil {
		u.fileRepo.DeleteObject(ctx, originalRef)
		return RecordView{}, err
	}

	u.publishTask(ctx, productID, originalRef)

	rec, _ := list.Get(index)
	u.logger.Info().Int64("product_id", productID).Str("filename", filename).Int("index", index).Msg("Image uploaded")
	return u.view(index, rec), nil
}

// publishTask queues the watermark generation task. Failures are logged and
// swallowed: the upload already succeeded and generation can be retriggered
// manually or in bulk.
func (u *MediaUsecase) publishTask(ctx context.Context, productID int64, original domain.ImageHandle) {
	task := domain.WatermarkTask{
		ID:           uuid.New().String(),
		ProductID:    productID,
		OriginalPath: original,
	}

	payload, err := json.Marshal(task)
	if err != nil {
		u.logger.Error().Err(err).Msg("Failed to marshal watermark task")
		return
	}

	key := []byte(strconv.FormatInt(productID, 10))
	if err := u.producer.Send(ctx, u.retries, key, payload); err != nil {
		u.logger.Error().Err(err).Int64("product_id", productID).Msg("Failed to queue watermark task")
	}
}

// List returns the product's full media list with resolved URLs.
func (u *MediaUsecase) List(ctx context.Context, productID int64) ([]RecordView, error) {
	list, err := u.loadList(ctx, productID)
	if err != nil {
		return nil, err
	}

	views := make([]RecordView, 0, list.Len())
	for i, rec := range list.Records() {
		views = append(views, u.view(i, rec))
	}
	return views, nil
}

// GenerateOne renders the watermark for a single record on request. Unlike
// the automatic path, a disabled watermark here is an error the caller sees.
func (u *MediaUsecase) GenerateOne(ctx context.Context, productID int64, index int) error {
	cfg, err := u.loadConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return watermark.ErrWatermarkDisabled
	}

	list, err := u.loadList(ctx, productID)
	if err != nil {
		return err
	}

	rec, ok := list.Get(index)
	if !ok {
		return ErrRecordNotFound
	}

	return u.sequencerFor(productID).GenerateOne(ctx, index, func(ctx context.Context, _ int) error {
		return u.renderRecord(ctx, productID, rec, cfg)
	})
}

// GenerateBulk renders watermarks for every record still missing one,
// strictly in ascending index order. Individual failures are tallied in the
// summary and the run continues.
func (u *MediaUsecase) GenerateBulk(ctx context.Context, productID int64, progress sequencer.ProgressFunc) (sequencer.Summary, error) {
	cfg, err := u.loadConfig(ctx)
	if err != nil {
		return sequencer.Summary{}, err
	}
	if !cfg.Enabled {
		return sequencer.Summary{}, watermark.ErrWatermarkDisabled
	}

	list, err := u.loadList(ctx, productID)
	if err != nil {
		return sequencer.Summary{}, err
	}
	queue := list.MissingWatermarks()

	return u.sequencerFor(productID).GenerateBulk(ctx, queue, func(ctx context.Context, index int) error {
		current, err := u.loadList(ctx, productID)
		if err != nil {
			return err
		}
		rec, ok := current.Get(index)
		if !ok {
			return ErrRecordNotFound
		}
		if rec.HasWatermark() {
			return nil
		}
		return u.renderRecord(ctx, productID, rec, cfg)
	}, progress)
}

// ProcessTask handles a queued auto-generation task. The task carries the
// original's handle rather than an index, so records that moved or vanished
// since upload are resolved or skipped safely. Failures never propagate: the
// task path is best effort.
func (u *MediaUsecase) ProcessTask(ctx context.Context, task domain.WatermarkTask) error {
	cfg, err := u.loadConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		u.logger.Debug().Str("task_id", task.ID).Msg("Watermarking disabled, skipping task")
		return nil
	}

	list, err := u.loadList(ctx, task.ProductID)
	if err != nil {
		return err
	}

	index := -1
	var rec domain.MediaRecord
	for i, r := range list.Records() {
		if r.OriginalRef == task.OriginalPath {
			index, rec = i, r
			break
		}
	}
	if index < 0 {
		u.logger.Warn().Str("task_id", task.ID).Int64("product_id", task.ProductID).Msg("Record gone before generation, skipping task")
		return nil
	}

	u.sequencerFor(task.ProductID).AutoGenerate(ctx, index, rec.HasWatermark(), func(ctx context.Context, _ int) error {
		return u.renderRecord(ctx, task.ProductID, rec, cfg)
	})
	return nil
}

// renderRecord runs the full round trip for one record: fetch the original,
// render, store the watermark and merge it back into the list. The merge keys
// on the original handle so a reorder during rendering can never mislabel a
// different record.
func (u *MediaUsecase) renderRecord(ctx context.Context, productID int64, rec domain.MediaRecord, cfg watermark.Config) error {
	format := domain.FormatFromPath(string(rec.OriginalRef))
	if format == "" {
		return watermark.ErrUnsupportedFormat
	}

	source, err := u.readObject(ctx, rec.OriginalRef)
	if err != nil {
		return fmt.Errorf("failed to read original: %w", err)
	}

	overlay, err := u.loadOverlay(ctx, cfg)
	if err != nil {
		return err
	}

	rendered, err := u.renderer.Render(source, format, cfg, overlay)
	if err != nil {
		return fmt.Errorf("failed to render watermark: %w", err)
	}

	wmRef, err := u.fileRepo.SaveWatermark(ctx, rec.OriginalRef, rendered, format.MimeType())
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}

	list, err := u.loadList(ctx, productID)
	if err != nil {
		return err
	}
	if !list.SetWatermarkByOriginal(rec.OriginalRef, wmRef) {
		u.logger.Warn().Int64("product_id", productID).Str("original", string(rec.OriginalRef)).Msg("Record removed during rendering, dropping result")
		return nil
	}

	return u.saveList(ctx, productID, list)
}

// loadOverlay fetches the configured overlay image for image-type watermarks.
// A missing overlay degrades to nil, which the renderer treats as a no-op.
func (u *MediaUsecase) loadOverlay(ctx context.Context, cfg watermark.Config) ([]byte, error) {
	if cfg.Type != domain.WatermarkImage || cfg.OverlayRef.IsZero() {
		return nil, nil
	}

	overlay, err := u.readObject(ctx, cfg.OverlayRef)
	if errors.Is(err, repoMedia.ErrFileNotFound) {
		u.logger.Warn().Err(watermark.ErrOverlayNotFound).Str("overlay", string(cfg.OverlayRef)).Msg("Overlay image missing, rendering without it")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay: %w", err)
	}
	return overlay, nil
}

// Reorder rewrites the list to the given prior-index order. Records omitted
// from the order are dropped from the list; their stored files are untouched.
func (u *MediaUsecase) Reorder(ctx context.Context, productID int64, order []int) error {
	list, err := u.loadList(ctx, productID)
	if err != nil {
		return err
	}

	if err := list.Reorder(order); err != nil {
		return err
	}

	return u.saveList(ctx, productID, list)
}

func (u *MediaUsecase) UpdateSKU(ctx context.Context, productID int64, index int, sku string) error {
	if sku == "" {
		return ErrEmptySKU
	}

	list, err := u.loadList(ctx, productID)
	if err != nil {
		return err
	}

	if err := list.SetSKU(index, sku); err != nil {
		return err
	}

	return u.saveList(ctx, productID, list)
}

// DeleteRecord removes one record and its watermark file. The original file
// is deliberately left in place: other surfaces may still reference it.
func (u *MediaUsecase) DeleteRecord(ctx context.Context, productID int64, index int) error {
	list, err := u.loadList(ctx, productID)
	if err != nil {
		return err
	}

	wmRef, err := list.RemoveAt(index)
	if err != nil {
		return err
	}

	if err := u.saveList(ctx, productID, list); err != nil {
		return err
	}

	if !wmRef.IsZero() {
		if err := u.fileRepo.DeleteObject(ctx, wmRef); err != nil {
			u.logger.Error().Err(err).Str("watermark", string(wmRef)).Msg("Failed to delete watermark file")
		}
	}

	return nil
}

// ClearAll drops the product's entire media list, deleting watermark files
// but never originals.
func (u *MediaUsecase) ClearAll(ctx context.Context, productID int64) error {
	list, err := u.loadList(ctx, productID)
	if err != nil {
		return err
	}

	for _, rec := range list.Records() {
		if !rec.HasWatermark() {
			continue
		}
		if err := u.fileRepo.DeleteObject(ctx, rec.WatermarkRef); err != nil {
			u.logger.Error().Err(err).Str("watermark", string(rec.WatermarkRef)).Msg("Failed to delete watermark file")
		}
	}

	return u.repo.DeleteMediaBlob(ctx, productID)
}

// Gallery returns one page of the product's watermarked images. Records
// without a watermark are invisible here regardless of pagination.
func (u *MediaUsecase) Gallery(ctx context.Context, productID int64, page, perPage int) (GalleryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = domain.DefaultGalleryPage
	}

	list, err := u.loadList(ctx, productID)
	if err != nil {
		return GalleryPage{}, err
	}

	watermarked := list.Watermarked()
	result := GalleryPage{
		Items:   []GalleryItem{},
		Total:   len(watermarked),
		Page:    page,
		PerPage: perPage,
	}

	start := (page - 1) * perPage
	if start >= len(watermarked) {
		return result, nil
	}
	end := start + perPage
	if end > len(watermarked) {
		end = len(watermarked)
	}

	for _, rec := range watermarked[start:end] {
		result.Items = append(result.Items, GalleryItem{
			OriginalURL:  u.fileRepo.ResolveURL(rec.OriginalRef),
			WatermarkURL: u.fileRepo.ResolveURL(rec.WatermarkRef),
			SKU:          rec.SKU,
			Filename:     rec.Filename,
			Filesize:     rec.FilesizeDisplay,
		})
	}

	return result, nil
}

// Settings returns the effective watermark configuration, with defaults
// filling any keys the store does not hold yet.
func (u *MediaUsecase) Settings(ctx context.Context) (watermark.Config, error) {
	return u.loadConfig(ctx)
}

// SaveSettings validates and persists the full configuration, one row per
// setting key.
func (u *MediaUsecase) SaveSettings(ctx context.Context, cfg watermark.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	for name, value := range cfg.Settings() {
		if err := u.repo.SetSetting(ctx, name, value); err != nil {
			return err
		}
	}
	return nil
}

func (u *MediaUsecase) loadConfig(ctx context.Context) (watermark.Config, error) {
	values, err := u.repo.GetAllSettings(ctx)
	if err != nil {
		return watermark.Config{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return watermark.ConfigFromSettings(values), nil
}

func (u *MediaUsecase) loadList(ctx context.Context, productID int64) (*mediastore.List, error) {
	blob, err := u.repo.GetMediaBlob(ctx, productID)
	if errors.Is(err, repoMedia.ErrMediaNotFound) {
		return mediastore.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load media list: %w", err)
	}
	return mediastore.Load(blob), nil
}

func (u *MediaUsecase) saveList(ctx context.Context, productID int64, list *mediastore.List) error {
	blob, err := list.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize media list: %w", err)
	}
	return u.repo.SetMediaBlob(ctx, productID, blob)
}

func (u *MediaUsecase) sequencerFor(productID int64) *sequencer.Sequencer {
	u.mu.Lock()
	defer u.mu.Unlock()

	seq, ok := u.sequencers[productID]
	if !ok {
		seq = sequencer.New(u.logger, u.seqOpts...)
		u.sequencers[productID] = seq
	}
	return seq
}

func (u *MediaUsecase) readObject(ctx context.Context, handle domain.ImageHandle) ([]byte, error) {
	rc, err := u.fileRepo.GetObject(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (u *MediaUsecase) view(index int, rec domain.MediaRecord) RecordView {
	return RecordView{
		Index:        index,
		OriginalURL:  u.fileRepo.ResolveURL(rec.OriginalRef),
		WatermarkURL: u.fileRepo.ResolveURL(rec.WatermarkRef),
		Filename:     rec.Filename,
		Filesize:     rec.FilesizeDisplay,
		SKU:          rec.SKU,
		HasWatermark: rec.HasWatermark(),
	}
}
