package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"product-media-manager/internal/repository/media"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type MediaRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewMediaRepository(db *dbpg.DB, retries retry.Strategy) *MediaRepository {
	return &MediaRepository{
		db:      db,
		retries: retries,
	}
}

// InitSchema creates the two tables the manager persists into: one blob per
// product holding the serialized record list, and one row per setting.
func (r *MediaRepository) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS product_media (
			product_id BIGINT PRIMARY KEY,
			media_data TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS watermark_settings (
			setting_name TEXT PRIMARY KEY,
			setting_value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecWithRetry(ctx, r.retries, query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}

	return nil
}

func (r *MediaRepository) GetMediaBlob(ctx context.Context, productID int64) ([]byte, error) {
	query := `SELECT media_data FROM product_media WHERE product_id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product media: %w", err)
	}

	var data string
	err = row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, media.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product media: %w", err)
	}

	return []byte(data), nil
}

func (r *MediaRepository) SetMediaBlob(ctx context.Context, productID int64, data []byte) error {
	query := `
		INSERT INTO product_media (product_id, media_data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE
		SET media_data = EXCLUDED.media_data, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query, productID, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save product media: %w", err)
	}

	return nil
}

func (r *MediaRepository) DeleteMediaBlob(ctx context.Context, productID int64) error {
	query := `DELETE FROM product_media WHERE product_id = $1`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product media: %w", err)
	}

	return nil
}

func (r *MediaRepository) GetSetting(ctx context.Context, name string) (string, error) {
	query := `SELECT setting_value FROM watermark_settings WHERE setting_name = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, name)
	if err != nil {
		return "", fmt.Errorf("failed to query setting: %w", err)
	}

	var value string
	err = row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", media.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan setting: %w", err)
	}

	return value, nil
}

func (r *MediaRepository) GetAllSettings(ctx context.Context) (map[string]string, error) {
	query := `SELECT setting_name, setting_value FROM watermark_settings`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return settings, nil
}

func (r *MediaRepository) SetSetting(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO watermark_settings (setting_name, setting_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_name) DO UPDATE
		SET setting_value = EXCLUDED.setting_value, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query, name, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	return nil
}
