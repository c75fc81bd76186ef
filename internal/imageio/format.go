package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	stdgif "image/gif"
	stdjpeg "image/jpeg"
	stdpng "image/png"

	xbmp "golang.org/x/image/bmp"
	xtiff "golang.org/x/image/tiff"

	"github.com/davesmith10/stylebatch/internal/bmp"
	"github.com/davesmith10/stylebatch/internal/gif"
	"github.com/davesmith10/stylebatch/internal/jpeg"
	"github.com/davesmith10/stylebatch/internal/png"
	"github.com/davesmith10/stylebatch/internal/tiff"
	"github.com/davesmith10/stylebatch/internal/webp"
)

// Format is a container recognised by its leading bytes.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

var errUnknownFormat = errors.New("unrecognised image format")

// Sniff identifies the container from magic bytes.
func Sniff(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG, nil
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, nil
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF, nil
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP, nil
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return FormatTIFF, nil
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP, nil
	default:
		return "", errUnknownFormat
	}
}

// Decode decodes data and returns the pixels together with any embedded
// ICC profile (nil when the file carries none).
func Decode(data []byte) (image.Image, []byte, Format, error) {
	format, err := Sniff(data)
	if err != nil {
		return nil, nil, "", err
	}

	r := bytes.NewReader(data)
	var (
		img     image.Image
		profile []byte
	)
	switch format {
	case FormatJPEG:
		if img, err = stdjpeg.Decode(r); err == nil {
			profile, err = jpeg.ReadICC(data)
		}
	case FormatPNG:
		if img, err = stdpng.Decode(r); err == nil {
			profile, err = png.ReadICC(data)
		}
	case FormatGIF:
		if img, err = stdgif.Decode(r); err == nil {
			profile, err = gif.ReadICC(data)
		}
	case FormatWebP:
		if img, err = webp.Decode(r); err == nil {
			profile, err = webp.ReadICC(data)
		}
	case FormatTIFF:
		if img, err = xtiff.Decode(r); err == nil {
			profile, err = tiff.ReadICC(data)
		}
	case FormatBMP:
		if img, err = xbmp.Decode(r); err == nil {
			profile, err = bmp.ReadICC(data)
		}
	}
	if err != nil {
		return nil, nil, format, fmt.Errorf("%s: %w", format, err)
	}
	return img, profile, format, nil
}
