package color

import "fmt"

// Intent constants matching lcms2.
const (
	IntentPerceptual           = 0
	IntentRelativeColorimetric = 1
	IntentSaturation           = 2
	IntentAbsoluteColorimetric = 3
)

// ParseIntent converts a string intent name to an lcms2 intent constant.
func ParseIntent(s string) (int, error) {
	switch s {
	case "", "perceptual":
		return IntentPerceptual, nil
	case "relative":
		return IntentRelativeColorimetric, nil
	case "saturation":
		return IntentSaturation, nil
	case "absolute":
		return IntentAbsoluteColorimetric, nil
	default:
		return 0, fmt.Errorf("unknown rendering intent: %q", s)
	}
}
