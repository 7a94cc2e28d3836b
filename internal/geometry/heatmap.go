package geometry

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ScoringMode selects how LocateFocusPoint ranks heatmap pixels.
type ScoringMode int

const (
	// CenterWeighted scores brightness × (1 − normalized distance to center).
	CenterWeighted ScoringMode = iota
	// MaxBrightness scores raw brightness.
	MaxBrightness
)

// String returns the mode name.
func (m ScoringMode) String() string {
	switch m {
	case CenterWeighted:
		return "center-weighted"
	case MaxBrightness:
		return "max-brightness"
	default:
		return "unknown"
	}
}

// maxCenterDistance is the distance from (0.5,0.5) to a corner.
var maxCenterDistance = math.Sqrt(0.5)

// Heatmap is a low-resolution attention map together with the resolution
// of the frame it was computed from.
type Heatmap struct {
	Gray         *image.Gray
	SourceWidth  int
	SourceHeight int
}

// Empty reports whether the heatmap carries no usable data.
func (h *Heatmap) Empty() bool {
	return h == nil || h.Gray == nil || h.Gray.Rect.Empty() || h.SourceWidth <= 0 || h.SourceHeight <= 0
}

// Downscaled returns a copy whose source resolution is reduced so that the
// upsampled map has at most maxPixels pixels. Aspect ratio is preserved.
// A non-positive maxPixels returns h unchanged.
func (h *Heatmap) Downscaled(maxPixels int) *Heatmap {
	if h.Empty() || maxPixels <= 0 {
		return h
	}

	total := h.SourceWidth * h.SourceHeight
	if total <= maxPixels {
		return h
	}

	scale := math.Sqrt(float64(maxPixels) / float64(total))
	w := max(1, int(float64(h.SourceWidth)*scale))
	hh := max(1, int(float64(h.SourceHeight)*scale))

	return &Heatmap{Gray: h.Gray, SourceWidth: w, SourceHeight: hh}
}

// Upsample scales the heatmap to its source resolution with bilinear
// interpolation. It returns nil if the heatmap is empty.
func (h *Heatmap) Upsample() *image.Gray {
	if h.Empty() {
		return nil
	}

	src := h.Gray
	if src.Rect.Dx() == h.SourceWidth && src.Rect.Dy() == h.SourceHeight {
		return src
	}

	dst := image.NewGray(image.Rect(0, 0, h.SourceWidth, h.SourceHeight))
	draw.BiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}

// LocateFocusPoint scans every pixel of the upsampled heatmap and returns
// the normalized center of the highest-scoring pixel. Scan order is
// top-to-bottom, left-to-right and the first maximum wins.
//
// The scan is O(width×height) per call; callers at high frame rates should
// cap the source size with Downscaled.
func LocateFocusPoint(h *Heatmap, mode ScoringMode) (Point, bool) {
	img := h.Upsample()
	if img == nil {
		return Point{}, false
	}

	w, ht := img.Rect.Dx(), img.Rect.Dy()
	fw, fh := float64(w), float64(ht)

	best := -1.0
	var focus Point

	for y := 0; y < ht; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		ny := (float64(y) + 0.5) / fh
		for x, v := range row {
			nx := (float64(x) + 0.5) / fw
			brightness := float64(v) / 255.0

			score := brightness
			if mode == CenterWeighted {
				d := math.Hypot(nx-0.5, ny-0.5) / maxCenterDistance
				score = brightness * (1 - d)
			}

			if score > best {
				best = score
				focus = Point{X: nx, Y: ny}
			}
		}
	}

	return focus, true
}
