package augment

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// FillColor is the color geometric transforms paint over pixels that move in
// from outside the image. It is either a scalar or a fixed-order tuple of
// channel values.
type FillColor struct {
	scalar uint8
	tuple  []uint8
}

// Gray returns a scalar fill color.
func Gray(v uint8) FillColor { return FillColor{scalar: v} }

// Tuple returns a tuple fill color. The channel values are copied.
func Tuple(channels ...uint8) FillColor {
	if len(channels) == 0 {
		return FillColor{}
	}
	return FillColor{tuple: append([]uint8(nil), channels...)}
}

func RGB(r, g, b uint8) FillColor { return Tuple(r, g, b) }

// Black is the default fill color.
var Black = Gray(0)

func (f FillColor) IsScalar() bool { return f.tuple == nil }

// Scalar returns the scalar value. It is meaningless for tuples.
func (f FillColor) Scalar() uint8 { return f.scalar }

// Channels returns a copy of the tuple, or nil for a scalar.
func (f FillColor) Channels() []uint8 {
	if f.tuple == nil {
		return nil
	}
	return append([]uint8(nil), f.tuple...)
}

// Equal reports whether two fill colors hold the same form and values.
func (f FillColor) Equal(o FillColor) bool {
	if f.IsScalar() != o.IsScalar() {
		return false
	}
	if f.IsScalar() {
		return f.scalar == o.scalar
	}
	if len(f.tuple) != len(o.tuple) {
		return false
	}
	for i := range f.tuple {
		if f.tuple[i] != o.tuple[i] {
			return false
		}
	}
	return true
}

// Color converts the fill to an opaque color unless a fourth channel sets alpha.
func (f FillColor) Color() color.Color {
	switch len(f.tuple) {
	case 0:
		return color.NRGBA{R: f.scalar, G: f.scalar, B: f.scalar, A: 0xff}
	case 1:
		return color.NRGBA{R: f.tuple[0], G: f.tuple[0], B: f.tuple[0], A: 0xff}
	case 2:
		return color.NRGBA{R: f.tuple[0], G: f.tuple[0], B: f.tuple[0], A: f.tuple[1]}
	case 3:
		return color.NRGBA{R: f.tuple[0], G: f.tuple[1], B: f.tuple[2], A: 0xff}
	default:
		return color.NRGBA{R: f.tuple[0], G: f.tuple[1], B: f.tuple[2], A: f.tuple[3]}
	}
}

func (f FillColor) String() string {
	if f.IsScalar() {
		return fmt.Sprintf("%d", f.scalar)
	}
	parts := make([]string, len(f.tuple))
	for i, c := range f.tuple {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var namedFills = map[string]FillColor{
	"black": Gray(0),
	"gray":  Gray(128),
	"grey":  Gray(128),
	"white": Gray(255),
}

// ParseFillColor converts a decoded configuration value into a FillColor.
// It accepts nil (black), a color name, an integer, or a list of integers.
func ParseFillColor(v any) (FillColor, error) {
	switch x := v.(type) {
	case nil:
		return Black, nil
	case FillColor:
		return x, nil
	case string:
		if f, ok := namedFills[strings.ToLower(strings.TrimSpace(x))]; ok {
			return f, nil
		}
		return FillColor{}, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("unknown fill color %q", x)}
	case int:
		return parseChannelScalar(int64(x))
	case int64:
		return parseChannelScalar(x)
	case float64:
		if x != math.Trunc(x) {
			return FillColor{}, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("fill channel %g is not an integer", x)}
		}
		if x < 0 || x > 255 {
			return FillColor{}, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("fill channel %g out of range [0, 255]", x)}
		}
		return Gray(uint8(x)), nil
	case []int:
		out := make([]any, len(x))
		for i, c := range x {
			out[i] = c
		}
		return ParseFillColor(out)
	case []any:
		channels := make([]uint8, len(x))
		for i, c := range x {
			f, err := ParseFillColor(c)
			if err != nil {
				return FillColor{}, err
			}
			if !f.IsScalar() {
				return FillColor{}, &ConfigurationError{Index: -1, Reason: "fill color channels must be scalars"}
			}
			channels[i] = f.scalar
		}
		if len(channels) == 0 || len(channels) > 4 {
			return FillColor{}, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("fill color needs 1 to 4 channels, got %d", len(channels))}
		}
		return Tuple(channels...), nil
	default:
		return FillColor{}, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("unsupported fill color %T", v)}
	}
}

func parseChannelScalar(v int64) (FillColor, error) {
	if v < 0 || v > 255 {
		return FillColor{}, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("fill channel %d out of range [0, 255]", v)}
	}
	return Gray(uint8(v)), nil
}
