package pipeline

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMemoryDim is the square side length that fits in memory for the
// safe scale policy.
const DefaultMemoryDim = 512

// SafeScale returns the largest side length whose image, at the aspect
// ratio of w×h, holds about as many pixels as a memoryDim square. An empty
// image yields 0.
func SafeScale(w, h, memoryDim int) int {
	if min(w, h) <= 0 {
		return 0
	}
	ratio := float64(h) / float64(w)
	if w > h {
		ratio = float64(w) / float64(h)
	}
	return int(math.Sqrt(ratio) * float64(memoryDim))
}

// LargestSide returns max(w, h).
func LargestSide(w, h int) int {
	return max(w, h)
}

// ScalePolicy selects how the end scale is derived from the content size.
type ScalePolicy string

const (
	ScaleLargestSide ScalePolicy = "largest-side"
	ScaleSafe        ScalePolicy = "safe"
)

// ParseScalePolicy accepts largest-side or safe; empty means largest-side.
func ParseScalePolicy(s string) (ScalePolicy, error) {
	switch p := ScalePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ScaleLargestSide, nil
	case ScaleLargestSide, ScaleSafe:
		return p, nil
	default:
		return "", fmt.Errorf("unknown scale policy %q (want largest-side or safe)", s)
	}
}

// ScaleOptions configure the end scale passed to the stylizer.
type ScaleOptions struct {
	Policy    ScalePolicy
	MemoryDim int
}

// EndScale applies the policy to a w×h content image.
func (o ScaleOptions) EndScale(w, h int) int {
	if o.Policy == ScaleSafe {
		dim := o.MemoryDim
		if dim <= 0 {
			dim = DefaultMemoryDim
		}
		return SafeScale(w, h, dim)
	}
	return LargestSide(w, h)
}
