package imageio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/bmp"
	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/gif"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/davesmith10/stylebatch/internal/jpeg"
	"github.com/davesmith10/stylebatch/internal/png"
	"github.com/davesmith10/stylebatch/internal/tiff"
	"github.com/davesmith10/stylebatch/internal/webp"
)

// OutputExtensions lists the extensions Save accepts for image results.
var OutputExtensions = []string{".jpg", ".jpeg", ".webp", ".png", ".tif", ".tiff", ".bmp", ".gif"}

// Saver writes stylized results tagged with the canonical profile.
type Saver struct {
	canonical *color.Canonical
	log       zerolog.Logger
}

func NewSaver(canonical *color.Canonical, log zerolog.Logger) *Saver {
	return &Saver{canonical: canonical, log: log}
}

// CheckOutput returns an *UnsupportedOutputError when a result of the given
// representation cannot be saved at path.
func CheckOutput(path string, rep ir.Representation) error {
	ext := strings.ToLower(filepath.Ext(path))
	ok := false
	switch ext {
	case ".tif", ".tiff":
		ok = rep == ir.RepresentationImage || rep == ir.RepresentationRaw
	case ".jpg", ".jpeg", ".webp", ".png", ".bmp", ".gif":
		ok = rep == ir.RepresentationImage
	}
	if !ok {
		return &UnsupportedOutputError{Representation: rep, Ext: ext}
	}
	return nil
}

type encodeFunc func(w io.Writer, profile []byte) error

func encoderFor(ext string, out ir.Output) encodeFunc {
	switch o := out.(type) {
	case *ir.Image:
		rgb := o
		if rgb.Mode != ir.ModeRGB {
			rgb = rgb.ToRGB()
		}
		switch ext {
		case ".jpg", ".jpeg":
			return func(w io.Writer, p []byte) error { return jpeg.Encode(w, rgb.Image(), p) }
		case ".webp":
			return func(w io.Writer, p []byte) error { return webp.Encode(w, rgb.Image(), p) }
		case ".png":
			return func(w io.Writer, p []byte) error { return png.Encode(w, rgb.Image(), p) }
		case ".tif", ".tiff":
			return func(w io.Writer, p []byte) error { return tiff.Encode(w, rgb, p) }
		case ".bmp":
			return func(w io.Writer, p []byte) error { return bmp.Encode(w, rgb.Image(), p) }
		case ".gif":
			return func(w io.Writer, p []byte) error { return gif.Encode(w, rgb.Image(), p) }
		}
	case *ir.RawArray:
		switch ext {
		case ".tif", ".tiff":
			return func(w io.Writer, p []byte) error { return tiff.EncodeRaw(w, o, p) }
		}
	}
	return nil
}

// Save encodes out according to the extension of path and writes it
// atomically. Missing parent directories are created.
func (s *Saver) Save(path string, out ir.Output) error {
	ext := strings.ToLower(filepath.Ext(path))
	encode := encoderFor(ext, out)
	if encode == nil {
		return &UnsupportedOutputError{Representation: out.Representation(), Ext: ext}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "create directory", Path: dir, Err: err}
	}

	size, err := writeAtomic(path, func(w io.Writer) error {
		return encode(w, s.canonical.Bytes())
	})
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	s.log.Info().
		Str("path", path).
		Str("representation", out.Representation().String()).
		Str("size", humanize.Bytes(uint64(size))).
		Msg("Saved output")
	return nil
}

func writeAtomic(path string, write func(io.Writer) error) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".stylebatch-*"+filepath.Ext(path))
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("renaming into place: %w", err)
	}
	return info.Size(), nil
}
