package watermark

import (
	"fmt"
	"strconv"

	"product-media-manager/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Settings store keys, one row per key in the watermark_settings table.
const (
	SettingEnabled         = "watermark_enabled"
	SettingType            = "watermark_type"
	SettingPosition        = "watermark_position"
	SettingOpacity         = "watermark_opacity"
	SettingText            = "watermark_text"
	SettingFontSize        = "watermark_font_size"
	SettingFontColor       = "watermark_font_color"
	SettingBackgroundColor = "watermark_background_color"
	SettingPadding         = "watermark_padding"
	SettingQuality         = "watermark_quality"
	SettingOverlayPath     = "watermark_image_path"
	SettingOverlayScale    = "watermark_image_scale"
)

const defaultText = "© Product Media Manager"

// Config is the full watermark configuration, loaded once per render call so
// a settings change mid-batch never produces a half-old half-new render.
type Config struct {
	Enabled             bool
	Type                domain.WatermarkType `validate:"oneof=text image"`
	Position            domain.Anchor
	Opacity             int `validate:"min=0,max=100"`
	Padding             int `validate:"min=0"`
	Quality             int `validate:"min=0,max=100"`
	Text                string
	FontSize            int `validate:"min=1"`
	FontColor           RGB
	BackgroundColor     RGB
	OverlayRef          domain.ImageHandle
	OverlayScalePercent int `validate:"min=1,max=100"`
}

// DefaultConfig mirrors the defaults seeded into a fresh settings store.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		Type:                domain.WatermarkText,
		Position:            domain.AnchorBottomRight,
		Opacity:             70,
		Padding:             10,
		Quality:             90,
		Text:                defaultText,
		FontSize:            12,
		FontColor:           RGB{R: 255, G: 255, B: 255},
		BackgroundColor:     RGB{},
		OverlayScalePercent: 25,
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid watermark config: %w", err)
	}
	return nil
}

// ConfigFromSettings builds a Config from the raw key-value settings store.
// Missing or malformed values fall back to their defaults rather than failing
// the render path; the settings form is the only writer and already
// validates, so anything junk here is legacy data.
func ConfigFromSettings(values map[string]string) Config {
	cfg := DefaultConfig()

	if v, ok := values[SettingEnabled]; ok {
		cfg.Enabled = v == "1" || v == "true"
	}
	if v, ok := values[SettingType]; ok && domain.WatermarkType(v) == domain.WatermarkImage {
		cfg.Type = domain.WatermarkImage
	}
	if v, ok := values[SettingPosition]; ok && v != "" {
		cfg.Position = domain.Anchor(v)
	}
	if v, ok := intSetting(values, SettingOpacity, 0, 100); ok {
		cfg.Opacity = v
	}
	if v, ok := values[SettingText]; ok && v != "" {
		cfg.Text = v
	}
	if v, ok := intSetting(values, SettingFontSize, 1, 500); ok {
		cfg.FontSize = v
	}
	if v, err := HexToRGB(values[SettingFontColor]); err == nil {
		cfg.FontColor = v
	}
	if v, err := HexToRGB(values[SettingBackgroundColor]); err == nil {
		cfg.BackgroundColor = v
	}
	if v, ok := intSetting(values, SettingPadding, 0, 10000); ok {
		cfg.Padding = v
	}
	if v, ok := intSetting(values, SettingQuality, 0, 100); ok {
		cfg.Quality = v
	}
	if v, ok := values[SettingOverlayPath]; ok {
		cfg.OverlayRef = domain.ImageHandle(v)
	}
	if v, ok := intSetting(values, SettingOverlayScale, 1, 100); ok {
		cfg.OverlayScalePercent = v
	}

	return cfg
}

// Settings flattens the config back into per-key values for persistence.
func (c Config) Settings() map[string]string {
	enabled := "0"
	if c.Enabled {
		enabled = "1"
	}
	return map[string]string{
		SettingEnabled:         enabled,
		SettingType:            string(c.Type),
		SettingPosition:        string(c.Position),
		SettingOpacity:         strconv.Itoa(c.Opacity),
		SettingText:            c.Text,
		SettingFontSize:        strconv.Itoa(c.FontSize),
		SettingFontColor:       c.FontColor.Hex(),
		SettingBackgroundColor: c.BackgroundColor.Hex(),
		SettingPadding:         strconv.Itoa(c.Padding),
		SettingQuality:         strconv.Itoa(c.Quality),
		SettingOverlayPath:     string(c.OverlayRef),
		SettingOverlayScale:    strconv.Itoa(c.OverlayScalePercent),
	}
}

func intSetting(values map[string]string, key string, min, max int) (int, bool) {
	raw, ok := values[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}
