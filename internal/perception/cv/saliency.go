package cv

import (
	"fmt"
	"image"
	"slices"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/geometry"
)

// Saliency is the attention map and object boxes computed for one frame.
type Saliency struct {
	Heatmap *geometry.Heatmap
	Boxes   []geometry.Rect
}

// SaliencySource computes saliency for a frame.
type SaliencySource interface {
	Saliency(mat gocv.Mat) (Saliency, error)
	Close() error
}

// Saliency blur kernels.
const (
	detailBlurSize = 5
	regionBlurSize = 3
)

// GradientSaliency scores each region of the frame by its Laplacian
// energy. Busy, high-detail areas attract attention; flat backgrounds
// do not.
type GradientSaliency struct {
	size       int
	minBoxArea float64
}

// NewGradientSaliency returns a GradientSaliency producing size×size maps
// and dropping boxes smaller than minBoxArea.
func NewGradientSaliency(size int, minBoxArea float64) *GradientSaliency {
	if size <= 0 {
		size = 64
	}
	return &GradientSaliency{size: size, minBoxArea: minBoxArea}
}

// Saliency implements SaliencySource.
//
// Pipeline:
//  1. Grayscale and 5×5 Gaussian blur
//  2. Laplacian magnitude
//  3. Area resize to the map size, light blur, min-max normalize
//  4. Otsu threshold of the map and external contours for boxes
func (g *GradientSaliency) Saliency(mat gocv.Mat) (Saliency, error) {
	if mat.Empty() {
		return Saliency{}, fmt.Errorf("saliency: empty frame")
	}

	gray := toGray(mat)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(detailBlurSize, detailBlurSize), 0, 0, gocv.BorderDefault)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(blurred, &lap, gocv.MatTypeCV16S, 3, 1, 0, gocv.BorderDefault)

	energy := gocv.NewMat()
	defer energy.Close()
	gocv.ConvertScaleAbs(lap, &energy, 1, 0)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(energy, &small, image.Pt(g.size, g.size), 0, 0, gocv.InterpolationArea)
	gocv.GaussianBlur(small, &small, image.Pt(regionBlurSize, regionBlurSize), 0, 0, gocv.BorderDefault)

	norm := gocv.NewMat()
	defer norm.Close()
	gocv.Normalize(small, &norm, 0, 255, gocv.NormMinMax)

	heat, err := grayImage(norm)
	if err != nil {
		return Saliency{}, fmt.Errorf("saliency map: %w", err)
	}

	boxes := g.boxes(norm)

	return Saliency{
		Heatmap: &geometry.Heatmap{Gray: heat, SourceWidth: mat.Cols(), SourceHeight: mat.Rows()},
		Boxes:   boxes,
	}, nil
}

// boxes segments the normalized map with Otsu's threshold and returns the
// bounding boxes of the bright regions, largest first.
func (g *GradientSaliency) boxes(norm gocv.Mat) []geometry.Rect {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(norm, &mask, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	w, h := float64(norm.Cols()), float64(norm.Rows())
	var boxes []geometry.Rect
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		box := geometry.Rect{
			X:      float64(r.Min.X) / w,
			Y:      float64(r.Min.Y) / h,
			Width:  float64(r.Dx()) / w,
			Height: float64(r.Dy()) / h,
		}
		if box.Area() < g.minBoxArea {
			continue
		}
		boxes = append(boxes, box)
	}

	slices.SortStableFunc(boxes, func(a, b geometry.Rect) int {
		switch {
		case a.Area() > b.Area():
			return -1
		case a.Area() < b.Area():
			return 1
		default:
			return 0
		}
	})
	return boxes
}

// Close implements SaliencySource.
func (g *GradientSaliency) Close() error {
	return nil
}

// grayImage copies a single-channel 8-bit Mat into an image.Gray.
func grayImage(mat gocv.Mat) (*image.Gray, error) {
	if mat.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("unexpected mat type %v", mat.Type())
	}

	rows, cols := mat.Rows(), mat.Cols()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.Pix[y*img.Stride+x] = mat.GetUCharAt(y, x)
		}
	}
	return img, nil
}
