package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"product-media-manager/internal/domain"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Text metrics are a deliberately crude fixed-width approximation; the layout
// contract is the bounding geometry, not glyph shapes.
const (
	charWidthRatio  = 0.6
	textHeightSlack = 4
)

// Renderer composites a text or image overlay onto a source raster and
// re-encodes it. It is a pure transform over bytes: no storage, no retries,
// byte-identical output for identical inputs.
type Renderer struct {
	font *truetype.Font
}

func NewRenderer() *Renderer {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{font: f}
}

// Render decodes source according to format, applies the configured overlay
// and re-encodes at the configured quality. The overlay argument carries the
// raw bytes of the overlay image for image-type configs; callers that cannot
// resolve cfg.OverlayRef pass nil, and the render degrades to a no-op overlay
// instead of failing.
func (r *Renderer) Render(source []byte, format domain.ImageFormat, cfg Config, overlay []byte) ([]byte, error) {
	if !cfg.Enabled {
		return nil, ErrWatermarkDisabled
	}

	src, err := decode(source, format)
	if err != nil {
		return nil, err
	}

	var out image.Image
	switch cfg.Type {
	case domain.WatermarkImage:
		out = r.applyImageOverlay(src, cfg, overlay)
	default:
		out, err = r.applyTextOverlay(src, cfg)
		if err != nil {
			return nil, err
		}
	}

	return encode(out, format, cfg.Quality)
}

func decode(source []byte, format domain.ImageFormat) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case domain.FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(source))
	case domain.FormatPNG:
		img, err = png.Decode(bytes.NewReader(source))
	case domain.FormatGIF:
		img, err = gif.Decode(bytes.NewReader(source))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func (r *Renderer) applyTextOverlay(src image.Image, cfg Config) (image.Image, error) {
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	textWidth := int(float64(len(cfg.Text)) * float64(cfg.FontSize) * charWidthRatio)
	textHeight := cfg.FontSize + textHeightSlack

	pos := TextOrigin(bounds.Dx(), bounds.Dy(), textWidth, textHeight, cfg.Padding, cfg.Position)
	alpha := AlphaFromOpacity(cfg.Opacity)

	// Background box: text bbox expanded by padding on all sides. pos.Y is the
	// text baseline, so the box reaches from one text height above it down to
	// the padding below.
	box := image.Rect(
		pos.X-cfg.Padding,
		pos.Y-textHeight-cfg.Padding,
		pos.X+textWidth+cfg.Padding,
		pos.Y+cfg.Padding,
	).Intersect(bounds)

	bg := cfg.BackgroundColor
	draw.Draw(canvas, box, image.NewUniform(color.NRGBA{bg.R, bg.G, bg.B, alpha}), image.Point{}, draw.Over)

	if r.font != nil && cfg.Text != "" {
		fc := cfg.FontColor
		c := freetype.NewContext()
		c.SetDPI(72)
		c.SetFont(r.font)
		c.SetFontSize(float64(cfg.FontSize))
		c.SetClip(canvas.Bounds())
		c.SetDst(canvas)
		c.SetSrc(image.NewUniform(color.NRGBA{fc.R, fc.G, fc.B, alpha}))
		c.SetHinting(font.HintingFull)

		baseline := freetype.Pt(pos.X, pos.Y-textHeightSlack)
		if _, err := c.DrawString(cfg.Text, baseline); err != nil {
			return nil, fmt.Errorf("failed to draw watermark text: %w", err)
		}
	}

	return canvas, nil
}

// applyImageOverlay scales the overlay to the configured percentage of the
// canvas width, flattens it over an opaque white canvas at the configured
// opacity and pastes the result with a plain overwrite copy. The flatten step
// is legacy-observable behavior: a semi-transparent overlay shows through
// against white, not against the destination pixels. Do not "fix" it.
func (r *Renderer) applyImageOverlay(src image.Image, cfg Config, overlay []byte) image.Image {
	if cfg.OverlayRef.IsZero() || len(overlay) == 0 {
		return src
	}

	ov, _, err := image.Decode(bytes.NewReader(overlay))
	if err != nil {
		return src
	}

	bounds := src.Bounds()
	targetWidth := bounds.Dx() * cfg.OverlayScalePercent / 100
	if targetWidth < 1 {
		targetWidth = 1
	}

	resized := imaging.Resize(ov, targetWidth, 0, imaging.Lanczos)
	white := imaging.New(resized.Bounds().Dx(), resized.Bounds().Dy(), color.NRGBA{255, 255, 255, 255})
	flattened := imaging.Overlay(white, resized, image.Point{}, float64(cfg.Opacity)/100)

	pos := OverlayOrigin(bounds.Dx(), bounds.Dy(), flattened.Bounds().Dx(), flattened.Bounds().Dy(), cfg.Padding, cfg.Position)
	return imaging.Paste(src, flattened, pos)
}

func encode(img image.Image, format domain.ImageFormat, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error

	switch format {
	case domain.FormatJPEG:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: quality})
	case domain.FormatPNG:
		enc := png.Encoder{CompressionLevel: pngCompression(quality)}
		err = enc.Encode(buf, img)
	case domain.FormatGIF:
		// GIF is always lossless; quality is ignored.
		err = gif.Encode(buf, img, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return buf.Bytes(), nil
}

// pngCompression maps the 0-100 quality knob onto the 9-0 zlib levels the way
// the legacy pipeline did (floor((100-quality)/10)), then onto the coarser
// levels the Go encoder exposes.
func pngCompression(quality int) png.CompressionLevel {
	level := (100 - quality) / 10
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 2:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
