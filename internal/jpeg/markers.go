package jpeg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerAPP0 = 0xe0
	markerAPP1 = 0xe1
	markerAPP2 = 0xe2
)

type segment struct {
	marker     byte
	start, end int // whole segment including the 0xFF marker prefix
}

func (s segment) payload(data []byte) []byte {
	return data[s.start+4 : s.end]
}

// scanSegments walks the marker segments between SOI and the first SOS.
// It returns the segments and the offset of the SOS marker (or len(data)
// when the stream ends first).
func scanSegments(data []byte) ([]segment, int, error) {
	if len(data) < 2 || data[0] != 0xff || data[1] != markerSOI {
		return nil, 0, errors.New("start-of-image marker not found")
	}

	var segs []segment
	i := 2
	for i+1 < len(data) {
		if data[i] != 0xff {
			return nil, 0, fmt.Errorf("expected marker at offset %d", i)
		}
		marker := data[i+1]
		switch {
		case marker == 0xff:
			i++ // fill byte
			continue
		case marker == markerSOS || marker == markerEOI:
			return segs, i, nil
		case marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7):
			i += 2
			continue
		}
		if i+4 > len(data) {
			return nil, 0, fmt.Errorf("truncated segment header at offset %d", i)
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return nil, 0, fmt.Errorf("segment 0x%02x at offset %d overruns data", marker, i)
		}
		segs = append(segs, segment{marker: marker, start: i, end: i + 2 + length})
		i += 2 + length
	}
	return segs, len(data), nil
}

func isICCSegment(data []byte, s segment) bool {
	return s.marker == markerAPP2 && bytes.HasPrefix(s.payload(data), []byte(iccSignature))
}

// ReadICC returns the ICC profile embedded in a JPEG stream, or nil when
// the stream carries none.
func ReadICC(data []byte) ([]byte, error) {
	segs, _, err := scanSegments(data)
	if err != nil {
		return nil, err
	}
	var markers [][]byte
	for _, s := range segs {
		if s.marker == markerAPP2 {
			markers = append(markers, s.payload(data))
		}
	}
	return ExtractICC(markers)
}

// EmbedICC returns a copy of a JPEG stream carrying profile in APP2
// markers. Existing ICC markers are dropped; the new ones follow any
// leading APP0/APP1 segments.
func EmbedICC(data, profile []byte) ([]byte, error) {
	segs, sos, err := scanSegments(data)
	if err != nil {
		return nil, err
	}
	chunks, err := ChunkICC(profile)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(profile) + len(chunks)*4)
	buf.Write(data[:2])

	writeChunks := func() {
		for _, c := range chunks {
			buf.Write([]byte{0xff, markerAPP2})
			_ = binary.Write(&buf, binary.BigEndian, uint16(len(c)+2))
			buf.Write(c)
		}
	}

	inserted := false
	for _, s := range segs {
		if isICCSegment(data, s) {
			continue
		}
		if !inserted && s.marker != markerAPP0 && s.marker != markerAPP1 {
			writeChunks()
			inserted = true
		}
		buf.Write(data[s.start:s.end])
	}
	if !inserted {
		writeChunks()
	}
	buf.Write(data[sos:])
	return buf.Bytes(), nil
}
