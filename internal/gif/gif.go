// Package gif stores ICC profiles in the ICCRGBG1012 application
// extension.
package gif

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	stdgif "image/gif"
	"io"
	"slices"
)

const (
	iccAppID = "ICCRGBG1012"

	blockExtension   = 0x21
	blockImage       = 0x2C
	blockTrailer     = 0x3B
	labelApplication = 0xFF
)

// headerEnd returns the offset just past the logical screen descriptor
// and any global color table.
func headerEnd(b []byte) (int, error) {
	if len(b) < 13 || (string(b[:6]) != "GIF87a" && string(b[:6]) != "GIF89a") {
		return 0, errors.New("not a GIF stream")
	}
	pos := 13
	if flags := b[10]; flags&0x80 != 0 {
		pos += 3 << ((flags & 0x07) + 1)
	}
	if pos > len(b) {
		return 0, errors.New("GIF color table truncated")
	}
	return pos, nil
}

// subBlocks concatenates the data sub-blocks starting at pos and returns
// the offset after the terminator.
func subBlocks(b []byte, pos int) ([]byte, int, error) {
	var data []byte
	for {
		if pos >= len(b) {
			return nil, 0, errors.New("GIF sub-block truncated")
		}
		n := int(b[pos])
		pos++
		if n == 0 {
			return data, pos, nil
		}
		if pos+n > len(b) {
			return nil, 0, errors.New("GIF sub-block truncated")
		}
		data = append(data, b[pos:pos+n]...)
		pos += n
	}
}

// ReadICC returns the profile stored before the first image, or nil.
func ReadICC(b []byte) ([]byte, error) {
	pos, err := headerEnd(b)
	if err != nil {
		return nil, err
	}
	for pos < len(b) {
		switch b[pos] {
		case blockImage, blockTrailer:
			return nil, nil
		case blockExtension:
			if pos+1 >= len(b) {
				return nil, errors.New("GIF extension truncated")
			}
			label := b[pos+1]
			pos += 2
			var id []byte
			if label == labelApplication {
				if pos >= len(b) || pos+1+int(b[pos]) > len(b) {
					return nil, errors.New("GIF application extension truncated")
				}
				id = b[pos+1 : pos+1+int(b[pos])]
				pos += 1 + int(b[pos])
			}
			data, next, err := subBlocks(b, pos)
			if err != nil {
				return nil, err
			}
			if string(id) == iccAppID {
				return data, nil
			}
			pos = next
		default:
			return nil, fmt.Errorf("unexpected GIF block 0x%02x", b[pos])
		}
	}
	return nil, nil
}

// EmbedICC inserts profile right after the global color table. The
// stream is marked GIF89a since extensions are not part of GIF87a.
func EmbedICC(b, profile []byte) ([]byte, error) {
	if len(profile) == 0 {
		return nil, errors.New("ICC profile is empty")
	}
	existing, err := ReadICC(b)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("GIF already carries an ICC profile")
	}
	pos, _ := headerEnd(b)

	ext := []byte{blockExtension, labelApplication, byte(len(iccAppID))}
	ext = append(ext, iccAppID...)
	for part := range slices.Chunk(profile, 0xff) {
		ext = append(ext, byte(len(part)))
		ext = append(ext, part...)
	}
	ext = append(ext, 0)

	out := make([]byte, 0, len(b)+len(ext))
	out = append(out, b[:pos]...)
	copy(out[3:6], "89a")
	out = append(out, ext...)
	return append(out, b[pos:]...), nil
}

// Encode quantizes img with the image/gif defaults and embeds profile.
func Encode(w io.Writer, img image.Image, profile []byte) error {
	var buf bytes.Buffer
	if err := stdgif.Encode(&buf, img, nil); err != nil {
		return fmt.Errorf("gif encode: %w", err)
	}
	data, err := EmbedICC(buf.Bytes(), profile)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
