package color

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// CanonicalFileName is the resource shipped next to the executable.
const CanonicalFileName = "sRGB Profile.icc"

// Canonical is the working-space profile every output is tagged with. It
// is loaded once at startup and never modified afterwards.
type Canonical struct {
	data []byte
	info ProfileInfo
}

// NewCanonical validates data and takes a private copy of it.
func NewCanonical(data []byte) (*Canonical, error) {
	info, err := ParseProfileInfo(data)
	if err != nil {
		return nil, err
	}
	return &Canonical{data: bytes.Clone(data), info: *info}, nil
}

// LoadCanonical reads the canonical profile from path. An empty path
// resolves to CanonicalFileName beside the running executable.
func LoadCanonical(path string) (*Canonical, error) {
	if path == "" {
		var err error
		if path, err = DefaultCanonicalPath(); err != nil {
			return nil, err
		}
	}
	data, err := LoadProfile(path)
	if err != nil {
		return nil, fmt.Errorf("loading canonical profile: %w", err)
	}
	return NewCanonical(data)
}

// DefaultCanonicalPath locates CanonicalFileName in the executable's directory.
func DefaultCanonicalPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), CanonicalFileName), nil
}

// Bytes returns a copy of the profile blob.
func (c *Canonical) Bytes() []byte {
	return bytes.Clone(c.data)
}

// Equal reports whether b is byte-identical to the canonical profile.
func (c *Canonical) Equal(b []byte) bool {
	return bytes.Equal(c.data, b)
}

// Info returns the parsed header of the canonical profile.
func (c *Canonical) Info() ProfileInfo {
	return c.info
}
