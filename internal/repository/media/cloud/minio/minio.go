package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"product-media-manager/internal/config"
	"product-media-manager/internal/domain"
	"product-media-manager/internal/repository/media"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type FileRepository struct {
	client  *minio.Client
	cfg     *config.Config
	retries retry.Strategy
	logger  *zlog.Zerolog
}

// NewFileRepository connects to the object store and ensures the configured
// bucket exists.
func NewFileRepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	r := &FileRepository{
		client:  client,
		cfg:     cfg,
		retries: retries,
		logger:  logger,
	}

	if err := r.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *FileRepository) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.cfg.Minio.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = r.client.MakeBucket(ctx, r.cfg.Minio.Bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	r.logger.Info().Str("bucket", r.cfg.Minio.Bucket).Msg("Created bucket")
	return nil
}

// SaveOriginal stores an uploaded source image under a fresh unique key and
// returns the handle it was stored at.
func (r *FileRepository) SaveOriginal(ctx context.Context, productID int64, filename string, data io.Reader, size int64, contentType string) (domain.ImageHandle, error) {
	key := fmt.Sprintf("originals/%d/%s_%s", productID, uuid.New().String(), path.Base(filename))

	_, err := r.client.PutObject(ctx, r.cfg.Minio.Bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save original: %w", err)
	}

	return domain.ImageHandle(key), nil
}

// SaveWatermark stores rendered watermark bytes under the key derived from the
// original's handle. Re-rendering the same original overwrites in place, so a
// stale watermark can never outlive a newer render.
func (r *FileRepository) SaveWatermark(ctx context.Context, original domain.ImageHandle, data []byte, contentType string) (domain.ImageHandle, error) {
	key := WatermarkKey(original)

	_, err := r.client.PutObject(ctx, r.cfg.Minio.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save watermark: %w", err)
	}

	return domain.ImageHandle(key), nil
}

func (r *FileRepository) GetObject(ctx context.Context, handle domain.ImageHandle) (io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, r.cfg.Minio.Bucket, string(handle), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; a missing key only surfaces on the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, media.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return obj, nil
}

func (r *FileRepository) DeleteObject(ctx context.Context, handle domain.ImageHandle) error {
	err := r.client.RemoveObject(ctx, r.cfg.Minio.Bucket, string(handle), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ResolveURL maps a stored handle to its public URL.
func (r *FileRepository) ResolveURL(handle domain.ImageHandle) string {
	if handle.IsZero() {
		return ""
	}
	return strings.TrimSuffix(r.cfg.Minio.PublicBaseURL, "/") + "/" + string(handle)
}

// WatermarkKey derives the deterministic watermark key for an original:
// watermarks/ instead of originals/, with a _watermarked suffix before the
// extension.
func WatermarkKey(original domain.ImageHandle) string {
	key := strings.TrimPrefix(string(original), "originals/")
	ext := path.Ext(key)
	return "watermarks/" + strings.TrimSuffix(key, ext) + "_watermarked" + ext
}
