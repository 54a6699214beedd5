package watermark

import (
	"image"

	"product-media-manager/internal/domain"
)

// OverlayOrigin computes the top-left corner for an image overlay of size
// ow x oh on a canvas of size w x h, padding pixels away from the anchored
// edges. An unknown anchor falls back to bottom-right.
func OverlayOrigin(w, h, ow, oh, padding int, anchor domain.Anchor) image.Point {
	switch anchor {
	case domain.AnchorTopLeft:
		return image.Pt(padding, padding)
	case domain.AnchorTopRight:
		return image.Pt(w-ow-padding, padding)
	case domain.AnchorBottomLeft:
		return image.Pt(padding, h-oh-padding)
	case domain.AnchorCenter:
		return image.Pt((w-ow)/2, (h-oh)/2)
	default:
		return image.Pt(w-ow-padding, h-oh-padding)
	}
}

// TextOrigin computes the anchor point for a text overlay. Unlike
// OverlayOrigin the returned y is a baseline coordinate: top anchors push the
// baseline down by the text height so the text box hangs below the padding
// edge, bottom anchors sit the baseline directly on it. The two routines are
// deliberately kept separate; baseline and bounding-box geometry disagree on
// the vertical axis. An unknown anchor falls back to bottom-right.
func TextOrigin(w, h, tw, th, padding int, anchor domain.Anchor) image.Point {
	switch anchor {
	case domain.AnchorTopLeft:
		return image.Pt(padding, padding+th)
	case domain.AnchorTopRight:
		return image.Pt(w-tw-padding, padding+th)
	case domain.AnchorBottomLeft:
		return image.Pt(padding, h-padding)
	case domain.AnchorCenter:
		return image.Pt((w-tw)/2, (h+th)/2)
	default:
		return image.Pt(w-tw-padding, h-padding)
	}
}
