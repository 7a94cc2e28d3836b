// Package testdata generates synthetic camera frames for tests.
package testdata

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Default fixture resolution.
const (
	Width  = 640
	Height = 480
)

var (
	background = gocv.NewScalar(128, 128, 128, 0)
	white      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black      = color.RGBA{A: 255}
)

// checkerSize is the square size of the textured subject.
const checkerSize = 8

// BlankFrame returns a flat gray frame. The caller closes it.
func BlankFrame() *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(background, Height, Width, gocv.MatTypeCV8UC3)
	return &mat
}

// SubjectFrame returns a flat gray frame with a high-detail checkerboard
// subject covering subject, in pixels. The caller closes it.
func SubjectFrame(subject image.Rectangle) *gocv.Mat {
	mat := BlankFrame()
	drawChecker(mat, subject)
	return mat
}

// MovingSubject returns n frames with a subject of size sz sliding right by
// step pixels per frame from start.
func MovingSubject(n int, start image.Point, sz image.Point, step int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		origin := start.Add(image.Pt(i*step, 0))
		frames[i] = SubjectFrame(image.Rectangle{Min: origin, Max: origin.Add(sz)})
	}
	return frames
}

// LinesFrame returns a frame with two thick lines converging towards
// vanish, in pixels. The caller closes it.
func LinesFrame(vanish image.Point) *gocv.Mat {
	mat := BlankFrame()
	gocv.Line(mat, image.Pt(0, Height-1), vanish, white, 3)
	gocv.Line(mat, image.Pt(Width-1, Height-1), vanish, white, 3)
	return mat
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// WriteFrames writes frames as numbered JPEG files into dir and returns the
// paths in order.
func WriteFrames(dir string, frames []*gocv.Mat) ([]string, error) {
	paths := make([]string, len(frames))
	for i, f := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%03d.jpg", i))
		if ok := gocv.IMWrite(path, *f); !ok {
			return nil, fmt.Errorf("write frame %s", path)
		}
		paths[i] = path
	}
	return paths, nil
}

func drawChecker(mat *gocv.Mat, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, Width, Height))
	for y := r.Min.Y; y < r.Max.Y; y += checkerSize {
		for x := r.Min.X; x < r.Max.X; x += checkerSize {
			c := black
			if ((x-r.Min.X)/checkerSize+(y-r.Min.Y)/checkerSize)%2 == 0 {
				c = white
			}
			cell := image.Rect(x, y, x+checkerSize, y+checkerSize).Intersect(r)
			gocv.Rectangle(mat, cell, c, -1)
		}
	}
}
