package guidance

import (
	"github.com/ayusman/framer/internal/geometry"
)

// ThirdsKeypoints are the four third-line intersections, indexed in the
// order used by State.SelectedKeypoints.
var ThirdsKeypoints = [4]geometry.Point{
	{X: 0.33, Y: 0.33},
	{X: 0.67, Y: 0.33},
	{X: 0.33, Y: 0.67},
	{X: 0.67, Y: 0.67},
}

// thirdsObjectSize is the width/height above which a seed box is tall or wide.
const thirdsObjectSize = 0.33

// thirdsLargeObject is the size above which a salient box is tracked as is.
const thirdsLargeObject = 0.5

// Shape classifies a seed box for rule-of-thirds targeting.
type Shape int

const (
	ShapeSmall Shape = iota
	ShapeTall
	ShapeWide
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeTall:
		return "tall"
	case ShapeWide:
		return "wide"
	default:
		return "small"
	}
}

// ClassifyShape returns tall when the box is taller than a third of the
// frame, wide when it is wider, and small otherwise. Tall wins when both
// hold.
func ClassifyShape(r geometry.Rect) Shape {
	switch {
	case r.Height > thirdsObjectSize:
		return ShapeTall
	case r.Width > thirdsObjectSize:
		return ShapeWide
	default:
		return ShapeSmall
	}
}

// thirdsStrategy places the subject on a third line or intersection chosen
// from the shape of the seed box.
type thirdsStrategy struct{}

func (thirdsStrategy) Style() Style                    { return StyleRuleOfThirds }
func (thirdsStrategy) FocusMode() geometry.ScoringMode { return geometry.MaxBrightness }
func (thirdsStrategy) ConfidenceThreshold() float64    { return ThirdsConfidenceThreshold }

func (thirdsStrategy) Seed(focus geometry.Point, boxes []geometry.Rect) (Seed, error) {
	region := seedRegion(focus, boxes, thirdsLargeObject)
	keypoints := thirdsKeypointsFor(region)

	pts := make([]geometry.Point, len(keypoints))
	for i, k := range keypoints {
		pts[i] = ThirdsKeypoints[k]
	}
	target, _ := geometry.Average(pts)

	return Seed{Region: region, Target: &target, Keypoints: keypoints}, nil
}

// thirdsKeypointsFor selects the active keypoints for a seed box.
func thirdsKeypointsFor(r geometry.Rect) []int {
	k := ThirdsKeypoints
	c := r.Center()

	switch ClassifyShape(r) {
	case ShapeTall:
		top := geometry.Pt(c.X, r.Y)
		if geometry.Distance(top, k[0]) <= geometry.Distance(top, k[1]) {
			return []int{0, 2}
		}
		return []int{1, 3}

	case ShapeWide:
		left := geometry.Pt(r.X, c.Y)
		if geometry.Distance(left, k[0]) <= geometry.Distance(left, k[2]) {
			return []int{0, 1}
		}
		return []int{2, 3}

	default:
		nearest := 0
		for i := 1; i < len(k); i++ {
			if geometry.Distance(c, k[i]) < geometry.Distance(c, k[nearest]) {
				nearest = i
			}
		}
		return []int{nearest}
	}
}

func (thirdsStrategy) ShotPoint(st State, region geometry.Rect) (geometry.Point, error) {
	if st.TargetAnchor == nil {
		return geometry.Point{}, ErrNoTargetRule
	}

	adjustment := st.TargetAnchor.Sub(region.Center())
	return region.Origin().Add(adjustment).FlipY(), nil
}
