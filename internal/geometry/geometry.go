// Package geometry provides normalized image-space primitives and the pure
// helpers the guidance engine builds on.
//
// All coordinates are normalized to [0,1] with the origin at the top-left
// corner of the frame unless a function says otherwise.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Point is a 2D point in normalized image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// FlipY converts between top-left and bottom-left origins.
func (p Point) FlipY() Point {
	return Point{X: p.X, Y: 1 - p.Y}
}

// Rect is an axis-aligned bounding box in normalized image coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectAround returns a w×h box centered on p.
func RectAround(p Point, w, h float64) Rect {
	return Rect{X: p.X - w/2, Y: p.Y - h/2, Width: w, Height: h}
}

// Origin returns the top-left corner of the box.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the midpoint of the box.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Empty reports whether the box has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the area of the box.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Segment is a straight line segment between two normalized points.
type Segment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return Distance(s.Start, s.End)
}

// Polyline is an ordered list of contour points.
type Polyline []Point

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Average returns the arithmetic mean of points.
// It returns false for an empty slice.
func Average(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	return Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}, true
}

// Intersect returns the intersection of the infinite lines through a and b.
// It returns false when the lines are parallel (zero determinant).
func Intersect(a, b Segment) (Point, bool) {
	x1, y1 := a.Start.X, a.Start.Y
	x2, y2 := a.End.X, a.End.Y
	x3, y3 := b.Start.X, b.Start.Y
	x4, y4 := b.End.X, b.End.Y

	det := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if det == 0 {
		return Point{}, false
	}

	c1 := x1*y2 - y1*x2
	c2 := x3*y4 - y3*x4

	return Point{
		X: (c1*(x3-x4) - (x1-x2)*c2) / det,
		Y: (c1*(y3-y4) - (y1-y2)*c2) / det,
	}, true
}

// Segments splits a polyline into consecutive straight segments, dropping
// any segment shorter than minLength.
func Segments(path Polyline, minLength float64) []Segment {
	if len(path) < 2 {
		return nil
	}

	var segments []Segment
	for i := 1; i < len(path); i++ {
		s := Segment{Start: path[i-1], End: path[i]}
		if s.Length() < minLength {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}
