// Package webp encodes WebP output and carries ICC profiles as ICCP
// metadata.
package webp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
)

// Quality is the fixed lossy quality for stylized output.
const Quality = 95

const iccMetadata = "ICCP"

func isWebP(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}

// ReadICC returns the ICCP profile of a WebP stream, or nil when it has
// none. libwebp reports a missing chunk as a failed lookup, so only the
// RIFF header is checked for errors here.
func ReadICC(b []byte) ([]byte, error) {
	if !isWebP(b) {
		return nil, errors.New("not a WebP stream")
	}
	profile, err := webp.GetMetadata(b, iccMetadata)
	if err != nil || len(profile) == 0 {
		return nil, nil
	}
	return profile, nil
}

// EmbedICC sets profile as the ICCP metadata of b, replacing any profile
// already present.
func EmbedICC(b, profile []byte) ([]byte, error) {
	if !isWebP(b) {
		return nil, errors.New("not a WebP stream")
	}
	if len(profile) == 0 {
		return nil, errors.New("ICC profile is empty")
	}
	return webp.SetMetadata(b, profile, iccMetadata)
}

// Encode writes img as lossy WebP at Quality, tagged with profile.
func Encode(w io.Writer, img image.Image, profile []byte) error {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: Quality}); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	tagged, err := EmbedICC(buf.Bytes(), profile)
	if err != nil {
		return fmt.Errorf("embedding ICC: %w", err)
	}
	_, err = w.Write(tagged)
	return err
}

// Decode decodes a WebP stream.
func Decode(r io.Reader) (image.Image, error) {
	return webp.Decode(r)
}
