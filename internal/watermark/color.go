package watermark

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an opaque color as stored in the settings form ("#rrggbb").
type RGB struct {
	R, G, B uint8
}

// HexToRGB parses a 3- or 6-digit hex color, with or without the leading '#'.
// Three-digit colors expand per digit: "#abc" means "#aabbcc".
func HexToRGB(hex string) (RGB, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")

	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}

	return RGB{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// Hex formats the color as a 6-digit lowercase hex string with a leading '#'.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// AlphaFromOpacity converts a 0-100 opacity percentage into an 8-bit alpha
// value: opacity 100 is fully opaque (255), opacity 0 fully transparent.
func AlphaFromOpacity(opacity int) uint8 {
	if opacity <= 0 {
		return 0
	}
	if opacity >= 100 {
		return 255
	}
	return uint8((opacity*255 + 50) / 100)
}
