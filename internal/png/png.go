// Package png reads and writes ICC profiles in PNG iCCP chunks.
package png

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	stdpng "image/png"
	"io"
)

const (
	signature   = "\x89PNG\r\n\x1a\n"
	profileName = "ICC Profile"
)

type chunk struct {
	typ        string
	start, end int // whole chunk: length, type, data, crc
}

func (c chunk) data(b []byte) []byte {
	return b[c.start+8 : c.end-4]
}

func scanChunks(b []byte) ([]chunk, error) {
	if !bytes.HasPrefix(b, []byte(signature)) {
		return nil, errors.New("missing PNG signature")
	}
	var chunks []chunk
	i := len(signature)
	for i < len(b) {
		if i+12 > len(b) {
			return nil, fmt.Errorf("truncated chunk at offset %d", i)
		}
		n := int(binary.BigEndian.Uint32(b[i : i+4]))
		end := i + 12 + n
		if n < 0 || end > len(b) {
			return nil, fmt.Errorf("chunk at offset %d overruns data", i)
		}
		c := chunk{typ: string(b[i+4 : i+8]), start: i, end: end}
		chunks = append(chunks, c)
		i = end
		if c.typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

// ReadICC returns the profile from the iCCP chunk, or nil when absent.
func ReadICC(b []byte) ([]byte, error) {
	chunks, err := scanChunks(b)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.typ != "iCCP" {
			continue
		}
		data := c.data(b)
		nul := bytes.IndexByte(data, 0)
		if nul < 1 || nul > 79 || nul+2 > len(data) {
			return nil, errors.New("malformed iCCP chunk")
		}
		if method := data[nul+1]; method != 0 {
			return nil, fmt.Errorf("unknown iCCP compression method %d", method)
		}
		zr, err := zlib.NewReader(bytes.NewReader(data[nul+2:]))
		if err != nil {
			return nil, fmt.Errorf("iCCP: %w", err)
		}
		defer zr.Close()
		profile, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("iCCP: %w", err)
		}
		return profile, nil
	}
	return nil, nil
}

func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	_ = binary.Write(buf, binary.BigEndian, crc.Sum32())
}

// EmbedICC returns a copy of a PNG stream whose iCCP chunk holds profile.
// Any previous iCCP or sRGB chunk is dropped.
func EmbedICC(b, profile []byte) ([]byte, error) {
	if len(profile) == 0 {
		return nil, errors.New("empty ICC profile")
	}
	chunks, err := scanChunks(b)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != "IHDR" {
		return nil, errors.New("PNG does not start with IHDR")
	}

	var payload bytes.Buffer
	payload.WriteString(profileName)
	payload.Write([]byte{0, 0})
	zw := zlib.NewWriter(&payload)
	if _, err := zw.Write(profile); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(b) + payload.Len() + 12)
	out.WriteString(signature)
	for i, c := range chunks {
		if c.typ == "iCCP" || c.typ == "sRGB" {
			continue
		}
		out.Write(b[c.start:c.end])
		if i == 0 {
			writeChunk(&out, "iCCP", payload.Bytes())
		}
	}
	return out.Bytes(), nil
}

// Encode writes img as a PNG with default settings, tagged with profile.
func Encode(w io.Writer, img image.Image, profile []byte) error {
	var buf bytes.Buffer
	if err := stdpng.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	tagged, err := EmbedICC(buf.Bytes(), profile)
	if err != nil {
		return fmt.Errorf("embedding ICC: %w", err)
	}
	_, err = w.Write(tagged)
	return err
}
