package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Pt(0.5, 0.5), Pt(0.5, 0.5), 0},
		{"horizontal", Pt(0, 0.5), Pt(0.3, 0.5), 0.3},
		{"3-4-5", Pt(0, 0), Pt(0.3, 0.4), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), eps)
		})
	}
}

func TestAverage(t *testing.T) {
	_, ok := Average(nil)
	assert.False(t, ok, "empty input has no average")

	p, ok := Average([]Point{Pt(0, 0), Pt(1, 0), Pt(1, 1), Pt(0, 1)})
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.X, eps)
	assert.InDelta(t, 0.5, p.Y, eps)
}

func TestIntersect(t *testing.T) {
	t.Run("crossing diagonals", func(t *testing.T) {
		a := Segment{Start: Pt(0, 0), End: Pt(1, 1)}
		b := Segment{Start: Pt(0, 1), End: Pt(1, 0)}

		p, ok := Intersect(a, b)
		require.True(t, ok)
		assert.InDelta(t, 0.5, p.X, eps)
		assert.InDelta(t, 0.5, p.Y, eps)
	})

	t.Run("lines meet beyond the segments", func(t *testing.T) {
		a := Segment{Start: Pt(0, 0), End: Pt(0.1, 0.1)}
		b := Segment{Start: Pt(0, 1), End: Pt(0.1, 0.9)}

		p, ok := Intersect(a, b)
		require.True(t, ok)
		assert.InDelta(t, 0.5, p.X, eps)
		assert.InDelta(t, 0.5, p.Y, eps)
	})

	t.Run("parallel", func(t *testing.T) {
		a := Segment{Start: Pt(0, 0), End: Pt(1, 0)}
		b := Segment{Start: Pt(0, 0.5), End: Pt(1, 0.5)}

		_, ok := Intersect(a, b)
		assert.False(t, ok)
	})
}

func TestSegments_DropsShortSegments(t *testing.T) {
	path := Polyline{
		Pt(0.1, 0.1),
		Pt(0.102, 0.1), // 0.002 long, below threshold
		Pt(0.112, 0.1), // 0.01 long, kept
	}

	segments := Segments(path, 0.0035)
	require.Len(t, segments, 1)
	assert.InDelta(t, 0.01, segments[0].Length(), 1e-9)
	assert.Equal(t, Pt(0.102, 0.1), segments[0].Start)
}

func TestSegments_ShortPath(t *testing.T) {
	assert.Nil(t, Segments(Polyline{Pt(0.5, 0.5)}, 0.0035))
	assert.Nil(t, Segments(nil, 0.0035))
}

func TestRect(t *testing.T) {
	r := Rect{X: 0.2, Y: 0.4, Width: 0.4, Height: 0.2}

	assert.Equal(t, Pt(0.2, 0.4), r.Origin())
	c := r.Center()
	assert.InDelta(t, 0.4, c.X, eps)
	assert.InDelta(t, 0.5, c.Y, eps)
	assert.True(t, r.Contains(Pt(0.2, 0.4)), "edges are inside")
	assert.True(t, r.Contains(Pt(0.6, 0.6)), "edges are inside")
	assert.False(t, r.Contains(Pt(0.61, 0.5)))

	around := RectAround(Pt(0.5, 0.5), 0.4, 0.4)
	assert.InDelta(t, 0.3, around.X, eps)
	assert.InDelta(t, 0.3, around.Y, eps)
}

func TestPoint_FlipY(t *testing.T) {
	assert.Equal(t, Pt(0.3, 0.75), Pt(0.3, 0.25).FlipY())
}

// grayFrom builds a w×h heatmap with the given (x,y)→value pixels set.
func grayFrom(w, h int, pixels map[image.Point]uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for p, v := range pixels {
		img.Pix[p.Y*img.Stride+p.X] = v
	}
	return img
}

func TestLocateFocusPoint_MaxBrightness(t *testing.T) {
	hm := &Heatmap{
		Gray: grayFrom(10, 10, map[image.Point]uint8{
			{X: 1, Y: 1}: 200,
			{X: 5, Y: 5}: 120,
		}),
		SourceWidth:  10,
		SourceHeight: 10,
	}

	p, ok := LocateFocusPoint(hm, MaxBrightness)
	require.True(t, ok)
	assert.InDelta(t, 0.15, p.X, eps)
	assert.InDelta(t, 0.15, p.Y, eps)
}

func TestLocateFocusPoint_PixelCenter(t *testing.T) {
	// On a coarse map the focus is the center of the winning pixel, not
	// its top-left corner.
	hm := &Heatmap{
		Gray:         grayFrom(2, 2, map[image.Point]uint8{{X: 1, Y: 1}: 255}),
		SourceWidth:  2,
		SourceHeight: 2,
	}

	p, ok := LocateFocusPoint(hm, MaxBrightness)
	require.True(t, ok)
	assert.InDelta(t, 0.75, p.X, eps)
	assert.InDelta(t, 0.75, p.Y, eps)

	// A single bright pixel in the middle of an odd-sized map lands on
	// the exact image center.
	hm = &Heatmap{
		Gray:         grayFrom(5, 5, map[image.Point]uint8{{X: 2, Y: 2}: 255}),
		SourceWidth:  5,
		SourceHeight: 5,
	}
	p, ok = LocateFocusPoint(hm, CenterWeighted)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.X, eps)
	assert.InDelta(t, 0.5, p.Y, eps)
}

func TestLocateFocusPoint_CenterWeighted(t *testing.T) {
	// The corner pixel is brighter but the center bias favors (5,5).
	hm := &Heatmap{
		Gray: grayFrom(10, 10, map[image.Point]uint8{
			{X: 1, Y: 1}: 200,
			{X: 5, Y: 5}: 120,
		}),
		SourceWidth:  10,
		SourceHeight: 10,
	}

	p, ok := LocateFocusPoint(hm, CenterWeighted)
	require.True(t, ok)
	assert.InDelta(t, 0.55, p.X, eps)
	assert.InDelta(t, 0.55, p.Y, eps)
}

func TestLocateFocusPoint_TiesResolveInScanOrder(t *testing.T) {
	hm := &Heatmap{
		Gray: grayFrom(4, 4, map[image.Point]uint8{
			{X: 3, Y: 0}: 255,
			{X: 0, Y: 2}: 255,
			{X: 2, Y: 3}: 255,
		}),
		SourceWidth:  4,
		SourceHeight: 4,
	}

	p, ok := LocateFocusPoint(hm, MaxBrightness)
	require.True(t, ok)
	assert.InDelta(t, 0.875, p.X, eps)
	assert.InDelta(t, 0.125, p.Y, eps)
}

func TestLocateFocusPoint_Upsamples(t *testing.T) {
	// A uniform 2×2 map upsampled to 40×20 stays uniform, so the first
	// pixel wins under max-brightness.
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	hm := &Heatmap{Gray: img, SourceWidth: 40, SourceHeight: 20}

	up := hm.Upsample()
	require.NotNil(t, up)
	assert.Equal(t, 40, up.Rect.Dx())
	assert.Equal(t, 20, up.Rect.Dy())

	p, ok := LocateFocusPoint(hm, MaxBrightness)
	require.True(t, ok)
	assert.InDelta(t, 0.5/40, p.X, eps)
	assert.InDelta(t, 0.5/20, p.Y, eps)
}

func TestLocateFocusPoint_Empty(t *testing.T) {
	_, ok := LocateFocusPoint(nil, MaxBrightness)
	assert.False(t, ok)

	_, ok = LocateFocusPoint(&Heatmap{Gray: image.NewGray(image.Rect(0, 0, 4, 4))}, MaxBrightness)
	assert.False(t, ok, "missing source size")
}

func TestHeatmap_Downscaled(t *testing.T) {
	hm := &Heatmap{Gray: image.NewGray(image.Rect(0, 0, 8, 8)), SourceWidth: 1920, SourceHeight: 1080}

	small := hm.Downscaled(1920 * 1080 / 4)
	assert.Equal(t, 960, small.SourceWidth)
	assert.Equal(t, 540, small.SourceHeight)

	assert.Same(t, hm, hm.Downscaled(0))
	assert.Same(t, hm, hm.Downscaled(math.MaxInt32))
}
