// Package tiff writes baseline RGB TIFF files with an embedded ICC
// profile and reads profiles back out of TIFF input.
package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/davesmith10/stylebatch/internal/ir"
)

// Tag numbers used by the writer.
const (
	TagImageWidth                = 256
	TagImageLength               = 257
	TagBitsPerSample             = 258
	TagCompression               = 259
	TagPhotometricInterpretation = 262
	TagStripOffsets              = 273
	TagSamplesPerPixel           = 277
	TagRowsPerStrip              = 278
	TagStripByteCounts           = 279
	TagXResolution               = 282
	TagYResolution               = 283
	TagPlanarConfiguration       = 284
	TagResolutionUnit            = 296
	TagSampleFormat              = 339
	TagInterColorProfile         = 34675
)

// Field types.
const (
	typeByte      = 1
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
)

const (
	photometricRGB   = 2
	resolutionInch   = 2
	sampleFormatUint = 1
	sampleFormatIEEE = 3
)

// Resolution is the X/Y resolution written to every file, in pixels per inch.
const Resolution = 72

var le = binary.LittleEndian

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func shorts(vs ...uint16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		le.PutUint16(b[2*i:], v)
	}
	return b
}

func long(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

func rational(num, den uint32) []byte {
	b := make([]byte, 8)
	le.PutUint32(b, num)
	le.PutUint32(b[4:], den)
	return b
}

func padEven(buf *bytes.Buffer) {
	if buf.Len()&1 == 1 {
		buf.WriteByte(0)
	}
}

// write lays out header, profile, pixel strip, out-of-line values and the
// single IFD, in that order.
func write(w io.Writer, width, height, bits, format int, pix, profile []byte) error {
	if len(profile) == 0 {
		return errors.New("empty ICC profile")
	}
	var buf bytes.Buffer
	buf.Grow(len(pix) + len(profile) + 512)
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(0)) // IFD offset, patched below

	profileOffset := buf.Len()
	buf.Write(profile)
	padEven(&buf)

	stripOffset := buf.Len()
	buf.Write(pix)
	padEven(&buf)

	bps := uint16(bits)
	sf := uint16(format)
	entries := []entry{
		{TagImageWidth, typeLong, 1, long(uint32(width))},
		{TagImageLength, typeLong, 1, long(uint32(height))},
		{TagBitsPerSample, typeShort, 3, shorts(bps, bps, bps)},
		{TagCompression, typeShort, 1, shorts(1)},
		{TagPhotometricInterpretation, typeShort, 1, shorts(photometricRGB)},
		{TagStripOffsets, typeLong, 1, long(uint32(stripOffset))},
		{TagSamplesPerPixel, typeShort, 1, shorts(3)},
		{TagRowsPerStrip, typeLong, 1, long(uint32(height))},
		{TagStripByteCounts, typeLong, 1, long(uint32(len(pix)))},
		{TagXResolution, typeRational, 1, rational(Resolution, 1)},
		{TagYResolution, typeRational, 1, rational(Resolution, 1)},
		{TagPlanarConfiguration, typeShort, 1, shorts(1)},
		{TagResolutionUnit, typeShort, 1, shorts(resolutionInch)},
		{TagSampleFormat, typeShort, 3, shorts(sf, sf, sf)},
		{TagInterColorProfile, typeByte, uint32(len(profile)), nil},
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		switch {
		case e.tag == TagInterColorProfile:
			offsets[i] = uint32(profileOffset)
		case len(e.value) > 4:
			offsets[i] = uint32(buf.Len())
			buf.Write(e.value)
			padEven(&buf)
		}
	}

	ifdOffset := buf.Len()
	_ = binary.Write(&buf, le, uint16(len(entries)))
	for i, e := range entries {
		_ = binary.Write(&buf, le, e.tag)
		_ = binary.Write(&buf, le, e.typ)
		_ = binary.Write(&buf, le, e.count)
		if e.value == nil || len(e.value) > 4 {
			_ = binary.Write(&buf, le, offsets[i])
			continue
		}
		var inline [4]byte
		copy(inline[:], e.value)
		buf.Write(inline[:])
	}
	_ = binary.Write(&buf, le, uint32(0)) // no next IFD

	out := buf.Bytes()
	le.PutUint32(out[4:8], uint32(ifdOffset))
	if uint64(len(out)) > math.MaxUint32 {
		return fmt.Errorf("TIFF too large (%d bytes)", len(out))
	}
	_, err := w.Write(out)
	return err
}

// EncodeRaw writes a float32 RGB array: photometric RGB, 32-bit IEEE
// samples, 72×72 dpi and profile in the InterColorProfile tag.
func EncodeRaw(w io.Writer, arr *ir.RawArray, profile []byte) error {
	if err := arr.Validate(); err != nil {
		return err
	}
	pix := make([]byte, 4*len(arr.Data))
	for i, v := range arr.Data {
		le.PutUint32(pix[4*i:], math.Float32bits(v))
	}
	return write(w, arr.Width, arr.Height, 32, sampleFormatIEEE, pix, profile)
}

// Encode writes an 8-bit image with the same layout as EncodeRaw. Non-RGB
// images are converted to RGB first.
func Encode(w io.Writer, img *ir.Image, profile []byte) error {
	if img.Mode != ir.ModeRGB {
		img = img.ToRGB()
	}
	if err := img.Validate(); err != nil {
		return err
	}
	return write(w, img.Width, img.Height, 8, sampleFormatUint, img.Pix, profile)
}
