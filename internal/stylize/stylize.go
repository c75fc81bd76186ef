// Package stylize defines the port to the style-transfer engine.
package stylize

import (
	"context"
	"errors"

	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/ir"
)

var (
	// ErrNoResult is returned by Result when the last run produced nothing.
	ErrNoResult = errors.New("stylizer produced no result")
	// ErrInterrupted is returned by Stylize when the run was stopped early.
	ErrInterrupted = errors.New("stylization interrupted")
)

// Request carries the inputs of one stylize call. Images are in the
// canonical color space.
type Request struct {
	Content  *ir.Image
	Styles   []*ir.Image
	EndScale int
	Seed     int64
	Devices  device.Set
}

// Stylizer renders a content image in the manner of one or more styles.
// Stylize blocks until the run ends; an interrupted run may still leave a
// partial result behind for Result.
type Stylizer interface {
	Stylize(ctx context.Context, req Request) error
	Result(rep ir.Representation) (ir.Output, error)
}

// Validate checks the request before handing it to an engine.
func (r Request) Validate() error {
	if r.Content == nil {
		return errors.New("content image required")
	}
	if len(r.Styles) == 0 {
		return errors.New("at least one style image required")
	}
	if r.EndScale <= 0 {
		return errors.New("end scale must be positive")
	}
	if r.Devices.Len() == 0 {
		return errors.New("no devices selected")
	}
	return nil
}

// Convert returns img in the requested representation.
func Convert(img *ir.Image, rep ir.Representation) (ir.Output, error) {
	switch rep {
	case ir.RepresentationImage:
		return img.ToRGB(), nil
	case ir.RepresentationRaw:
		return img.ToRaw(), nil
	default:
		return nil, errors.New("unknown representation " + rep.String())
	}
}
