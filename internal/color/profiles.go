package color

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/davesmith10/stylebatch/internal/ir"
	"seehuhn.de/go/icc"
)

const (
	maxProfileSize = 4 * 1024 * 1024 // 4 MB
	acspMagic      = 0x61637370      // 'acsp'
)

// ProfileInfo contains metadata parsed from an ICC profile header.
type ProfileInfo struct {
	Size       int
	Version    string
	ColorSpace icc.ColorSpace
	PCS        string
	Class      string
}

// Mode maps the profile's device color space onto a pixel layout.
func (pi *ProfileInfo) Mode() (ir.Mode, bool) {
	switch pi.ColorSpace {
	case icc.RGBSpace:
		return ir.ModeRGB, true
	case icc.CMYKSpace:
		return ir.ModeCMYK, true
	case icc.GraySpace:
		return ir.ModeGray, true
	default:
		return 0, false
	}
}

// ParseProfileInfo reads ICC header metadata from raw profile bytes.
func ParseProfileInfo(data []byte) (*ProfileInfo, error) {
	if len(data) < 128 {
		return nil, errors.New("ICC profile too short (< 128 bytes)")
	}
	if len(data) > maxProfileSize {
		return nil, fmt.Errorf("ICC profile too large (%d bytes, max %d)", len(data), maxProfileSize)
	}
	if sig := binary.BigEndian.Uint32(data[36:40]); sig != acspMagic {
		return nil, fmt.Errorf("invalid ICC signature: 0x%08x (expected 0x%08x)", sig, acspMagic)
	}

	p, err := icc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding ICC profile: %w", err)
	}
	return &ProfileInfo{
		Size:       len(data),
		Version:    p.Version.String(),
		ColorSpace: p.ColorSpace,
		PCS:        p.PCS.String(),
		Class:      p.Class.String(),
	}, nil
}

// LoadProfile reads an ICC profile from disk and validates it.
func LoadProfile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ICC profile: %w", err)
	}
	if _, err := ParseProfileInfo(data); err != nil {
		return nil, fmt.Errorf("validating ICC profile %s: %w", path, err)
	}
	return data, nil
}
