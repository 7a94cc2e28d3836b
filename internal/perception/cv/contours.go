package cv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/geometry"
)

// Canny hysteresis thresholds.
const (
	cannyLow  = 50
	cannyHigh = 150
)

// extractContours runs Canny edge detection and approximates every edge
// contour with a polyline in normalized coordinates.
func extractContours(mat gocv.Mat, epsilon float64) []geometry.Polyline {
	gray := toGray(mat)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(detailBlurSize, detailBlurSize), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, cannyLow, cannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	w, h := float64(mat.Cols()), float64(mat.Rows())
	var paths []geometry.Polyline
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		approx := gocv.ApproxPolyDP(c, epsilon*gocv.ArcLength(c, false), false)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) < 2 {
			continue
		}

		path := make(geometry.Polyline, len(pts))
		for j, p := range pts {
			path[j] = geometry.Pt(float64(p.X)/w, float64(p.Y)/h)
		}
		paths = append(paths, path)
	}
	return paths
}
