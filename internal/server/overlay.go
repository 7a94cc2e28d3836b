package server

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/guidance"
)

var (
	gridColor    = color.RGBA{R: 220, G: 220, B: 220, A: 0}
	regionColor  = color.RGBA{R: 80, G: 160, B: 255, A: 0}
	alignedColor = color.RGBA{G: 220, A: 0}
	shotColor    = color.RGBA{R: 255, G: 200, A: 0}
	lineColor    = color.RGBA{R: 255, G: 80, B: 80, A: 0}
)

// goldenSection is the golden-ratio grid position, 1/φ².
const goldenSection = 0.381966

// DrawOverlay annotates img in place with the guidance grid of the active
// style, the tracked region, the shot point and any leading lines.
func DrawOverlay(img *gocv.Mat, out guidance.Output) {
	if img == nil || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	toPixel := func(p geometry.Point) image.Point {
		return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	switch out.Style {
	case guidance.StyleRuleOfThirds:
		drawGrid(img, 1.0/3, 2.0/3)
	case guidance.StyleGoldenRatio:
		drawGrid(img, goldenSection, 1-goldenSection)
	case guidance.StyleCenter, guidance.StyleSymmetric:
		drawGrid(img, 0.5)
	}

	if r := out.TrackedRegion; r != nil {
		gocv.Rectangle(img, image.Rectangle{
			Min: toPixel(r.Origin()),
			Max: toPixel(geometry.Pt(r.MaxX(), r.MaxY())),
		}, regionColor, 2)
	}

	for _, s := range out.Segments {
		gocv.Line(img, toPixel(s.Start), toPixel(s.End), lineColor, 2)
	}
	if vp := out.VanishingPoint; vp != nil {
		gocv.Circle(img, toPixel(*vp), 6, lineColor, -1)
	}

	if sp := out.ShotPoint; sp != nil {
		// Shot points use a bottom-left origin.
		c := shotColor
		if out.Aligned {
			c = alignedColor
		}
		center := toPixel(sp.FlipY())
		gocv.Circle(img, center, 10, c, 3)
		gocv.Rectangle(img, image.Rectangle{
			Min: toPixel(geometry.Pt(guidance.AlignMin, guidance.AlignMin)),
			Max: toPixel(geometry.Pt(guidance.AlignMax, guidance.AlignMax)),
		}, c, 1)
	}
}

// drawGrid draws vertical and horizontal lines at each normalized position.
func drawGrid(img *gocv.Mat, at ...float64) {
	w, h := img.Cols(), img.Rows()
	for _, f := range at {
		x := int(f * float64(w))
		y := int(f * float64(h))
		gocv.Line(img, image.Pt(x, 0), image.Pt(x, h-1), gridColor, 1)
		gocv.Line(img, image.Pt(0, y), image.Pt(w-1, y), gridColor, 1)
	}
}
