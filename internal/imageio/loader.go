// Package imageio loads images into the canonical working space and saves
// stylized results tagged with the canonical profile.
package imageio

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/ir"
)

// Converter maps an image from one ICC profile to another.
type Converter interface {
	Convert(img *ir.Image, src, dst []byte, mode ir.Mode) (*ir.Image, error)
}

// Loader opens image files and brings them into the canonical space.
type Loader struct {
	conv      Converter
	canonical *color.Canonical
	log       zerolog.Logger
}

func NewLoader(conv Converter, canonical *color.Canonical, log zerolog.Logger) *Loader {
	return &Loader{conv: conv, canonical: canonical, log: log}
}

// Load decodes path and returns an RGB image in the canonical space. When
// proofPath is set the image is first rendered through that profile as
// CMYK and then brought back, so the result previews the proof device.
func (l *Loader) Load(path, proofPath string) (*ir.Image, error) {
	log := l.log.With().Str("path", path).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	src, embedded, format, err := Decode(data)
	if err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}

	var img *ir.Image
	srcProfile := embedded
	if embedded == nil {
		img = ir.FromImage(src, nil).ToRGB()
		srcProfile = l.canonical.Bytes()
	} else {
		img = ir.FromImage(src, embedded)
	}

	log.Debug().
		Str("format", string(format)).
		Int("width", img.Width).
		Int("height", img.Height).
		Str("mode", img.Mode.String()).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Bool("icc", embedded != nil).
		Msg("Decoded image")

	if proofPath == "" {
		if l.canonical.Equal(srcProfile) {
			out := img.ToRGB()
			out.ICC = l.canonical.Bytes()
			return out, nil
		}
		return l.conv.Convert(img, srcProfile, l.canonical.Bytes(), ir.ModeRGB)
	}

	proof, err := os.ReadFile(proofPath)
	if err != nil {
		return nil, &IOError{Op: "open proof profile", Path: proofPath, Err: err}
	}
	if _, err := color.ParseProfileInfo(proof); err != nil {
		return nil, &color.ConversionError{Op: "reading proof profile " + proofPath, Err: err}
	}

	log.Debug().Str("proof", proofPath).Msg("Soft-proofing")
	proofed, err := l.conv.Convert(img, srcProfile, proof, ir.ModeCMYK)
	if err != nil {
		return nil, err
	}
	return l.conv.Convert(proofed, proof, l.canonical.Bytes(), ir.ModeRGB)
}
