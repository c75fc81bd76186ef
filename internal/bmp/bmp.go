// Package bmp writes BMP files carrying an embedded ICC profile.
package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	xbmp "golang.org/x/image/bmp"
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	v5HeaderLen   = 124

	// BITMAPV5HEADER field offsets, relative to the start of the header.
	offCSType      = 56
	offIntent      = 108
	offProfileData = 112
	offProfileSize = 116

	csProfileEmbedded = 0x4D424544 // 'MBED'
	lcsGMImages       = 4
)

var le = binary.LittleEndian

func checkHeader(b []byte) error {
	if len(b) < fileHeaderLen+infoHeaderLen || string(b[:2]) != "BM" {
		return errors.New("not a BMP stream")
	}
	return nil
}

// ReadICC returns the profile embedded through a BITMAPV5HEADER, or nil.
func ReadICC(b []byte) ([]byte, error) {
	if err := checkHeader(b); err != nil {
		return nil, err
	}
	hdr := b[fileHeaderLen:]
	if le.Uint32(hdr[0:4]) < v5HeaderLen || len(hdr) < v5HeaderLen {
		return nil, nil
	}
	if le.Uint32(hdr[offCSType:]) != csProfileEmbedded {
		return nil, nil
	}
	start := fileHeaderLen + int(le.Uint32(hdr[offProfileData:]))
	size := int(le.Uint32(hdr[offProfileSize:]))
	if size == 0 || start < fileHeaderLen+v5HeaderLen || start+size > len(b) {
		return nil, fmt.Errorf("embedded profile out of bounds (offset %d, size %d)", start, size)
	}
	return bytes.Clone(b[start : start+size]), nil
}

// EmbedICC widens the 40-byte info header written by x/image/bmp to a
// BITMAPV5HEADER and appends profile after the pixel data.
func EmbedICC(b, profile []byte) ([]byte, error) {
	if len(profile) == 0 {
		return nil, errors.New("ICC profile is empty")
	}
	if err := checkHeader(b); err != nil {
		return nil, err
	}
	if n := le.Uint32(b[fileHeaderLen:]); n != infoHeaderLen {
		return nil, fmt.Errorf("unsupported BMP info header size %d", n)
	}
	pixOffset := int(le.Uint32(b[10:14]))
	if pixOffset < fileHeaderLen+infoHeaderLen || pixOffset > len(b) {
		return nil, fmt.Errorf("BMP pixel offset %d out of range", pixOffset)
	}
	grow := v5HeaderLen - infoHeaderLen
	body := b[fileHeaderLen+infoHeaderLen:]

	out := make([]byte, 0, len(b)+grow+len(profile))
	out = append(out, b[:fileHeaderLen+infoHeaderLen]...)
	out = append(out, make([]byte, grow)...)
	hdr := out[fileHeaderLen:]
	le.PutUint32(hdr[0:4], v5HeaderLen)
	le.PutUint32(hdr[offCSType:], csProfileEmbedded)
	le.PutUint32(hdr[offIntent:], lcsGMImages)
	le.PutUint32(hdr[offProfileData:], uint32(v5HeaderLen+len(body)))
	le.PutUint32(hdr[offProfileSize:], uint32(len(profile)))

	out = append(out, body...)
	out = append(out, profile...)
	le.PutUint32(out[2:6], uint32(len(out)))
	le.PutUint32(out[10:14], uint32(pixOffset+grow))
	return out, nil
}

// Encode writes img with the default x/image/bmp settings and embeds
// profile.
func Encode(w io.Writer, img image.Image, profile []byte) error {
	var buf bytes.Buffer
	if err := xbmp.Encode(&buf, img); err != nil {
		return fmt.Errorf("bmp encode: %w", err)
	}
	data, err := EmbedICC(buf.Bytes(), profile)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
