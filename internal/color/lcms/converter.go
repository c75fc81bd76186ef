package lcms

import (
	"bytes"
	"fmt"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/ir"
)

// Converter maps images between profiles with a fixed rendering intent.
type Converter struct {
	intent int
}

// NewConverter returns a Converter using one of the color.Intent* values.
func NewConverter(intent int) *Converter {
	return &Converter{intent: intent}
}

// Convert transforms img from the src profile to the dst profile, producing
// pixels in the requested output mode (RGB or CMYK). The result is tagged
// with dst.
func (c *Converter) Convert(img *ir.Image, src, dst []byte, mode ir.Mode) (*ir.Image, error) {
	if mode != ir.ModeRGB && mode != ir.ModeCMYK {
		return nil, &color.ConversionError{
			Op:  "convert",
			Err: fmt.Errorf("output mode must be RGB or CMYK, got %s", mode),
		}
	}

	xform, err := NewTransform(src, dst, img.Mode, mode, c.intent)
	if err != nil {
		return nil, &color.ConversionError{Op: "creating transform", Err: err}
	}
	defer xform.Close()

	out, err := xform.Apply(img)
	if err != nil {
		return nil, &color.ConversionError{Op: "applying transform", Err: err}
	}
	out.ICC = bytes.Clone(dst)
	return out, nil
}
