package guidance

import (
	"fmt"
	"math"
	"strings"
)

// Style identifies a composition rule.
type Style int

const (
	StyleCenter Style = iota
	StyleRuleOfThirds
	StyleGoldenRatio
	StyleLeadingLine
	StyleSymmetric
)

var styleNames = map[Style]string{
	StyleCenter:       "center",
	StyleRuleOfThirds: "rule-of-thirds",
	StyleGoldenRatio:  "golden-ratio",
	StyleLeadingLine:  "leading-line",
	StyleSymmetric:    "symmetric",
}

// Styles lists every style in menu order.
func Styles() []Style {
	return []Style{StyleCenter, StyleRuleOfThirds, StyleGoldenRatio, StyleLeadingLine, StyleSymmetric}
}

// String returns the style name.
func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("style(%d)", int(s))
}

// ParseStyle parses a style name as returned by String.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range styleNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown style %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Orientation selects the quadrant a golden-ratio target sits in.
type Orientation int

const (
	BottomLeft Orientation = iota
	BottomRight
	TopLeft
	TopRight
)

var orientationNames = map[Orientation]string{
	BottomLeft:  "bottom-left",
	BottomRight: "bottom-right",
	TopLeft:     "top-left",
	TopRight:    "top-right",
}

// String returns the orientation name.
func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("orientation(%d)", int(o))
}

// ParseOrientation parses an orientation name as returned by String.
func ParseOrientation(name string) (Orientation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for o, n := range orientationNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown orientation %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Aspect ratios the camera can deliver.
const (
	Aspect9x16 = 9.0 / 16.0
	Aspect3x4  = 3.0 / 4.0
)

// Params carries the activation parameters of a style. Only the golden
// ratio style reads them.
type Params struct {
	Aspect      float64     `json:"aspect,omitempty"`
	Orientation Orientation `json:"orientation"`
}

// DefaultParams returns parameters for a portrait 3:4 frame with the
// target in the bottom-left quadrant.
func DefaultParams() Params {
	return Params{Aspect: Aspect3x4, Orientation: BottomLeft}
}

// Is9x16 reports whether the aspect ratio is 9:16.
func (p Params) Is9x16() bool {
	return math.Abs(p.Aspect-Aspect9x16) < 1e-3
}
