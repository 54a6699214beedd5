package minio

import (
	"testing"

	"product-media-manager/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestWatermarkKey(t *testing.T) {
	tests := []struct {
		original string
		want     string
	}{
		{"originals/7/abc_photo.jpg", "watermarks/7/abc_photo_watermarked.jpg"},
		{"originals/7/abc_photo.png", "watermarks/7/abc_photo_watermarked.png"},
		{"originals/12/noext", "watermarks/12/noext_watermarked"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WatermarkKey(domain.ImageHandle(tt.original)))
	}
}

func TestWatermarkKey_Deterministic(t *testing.T) {
	original := domain.ImageHandle("originals/3/id_cap.gif")
	assert.Equal(t, WatermarkKey(original), WatermarkKey(original))
}
