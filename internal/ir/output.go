package ir

import (
	"fmt"
	"strings"
)

// Representation selects the in-memory form of a stylized result.
type Representation int

const (
	// RepresentationImage is a decoded raster (*Image).
	RepresentationImage Representation = iota
	// RepresentationRaw is a float32 sample array (*RawArray).
	RepresentationRaw
)

func (r Representation) String() string {
	switch r {
	case RepresentationImage:
		return "image"
	case RepresentationRaw:
		return "raw array"
	default:
		return fmt.Sprintf("Representation(%d)", int(r))
	}
}

// ParseRepresentation accepts "image" or "raw".
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "image":
		return RepresentationImage, nil
	case "raw":
		return RepresentationRaw, nil
	default:
		return 0, fmt.Errorf("unknown output representation: %q", s)
	}
}

// Output is a stylized result. It has exactly two implementations,
// *Image and *RawArray.
type Output interface {
	Representation() Representation
	sealed()
}

// RawArray is an H×W×C float32 array, row-major and channel-interleaved,
// with samples in [0,1].
type RawArray struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// Representation implements Output.
func (r *RawArray) Representation() Representation { return RepresentationRaw }

func (*RawArray) sealed() {}

// Validate checks that Data matches the declared geometry.
func (r *RawArray) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid array dimensions %dx%d", r.Width, r.Height)
	}
	if r.Channels != 3 {
		return fmt.Errorf("expected 3 channels, got %d", r.Channels)
	}
	if expected := r.Width * r.Height * r.Channels; len(r.Data) != expected {
		return fmt.Errorf("expected %d samples, got %d", expected, len(r.Data))
	}
	return nil
}
