package ir

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Mode is the pixel layout of an Image.
type Mode int

const (
	ModeRGB Mode = iota
	ModeCMYK
	ModeGray
)

func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeCMYK:
		return "CMYK"
	case ModeGray:
		return "L"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Channels returns the number of interleaved bytes per pixel.
func (m Mode) Channels() int {
	switch m {
	case ModeCMYK:
		return 4
	case ModeGray:
		return 1
	default:
		return 3
	}
}

// Image is the in-memory raster passed between the loader, the color
// transform, the stylizer and the saver. Pixels are interleaved 8-bit
// samples in row-major order.
type Image struct {
	Width  int
	Height int
	Mode   Mode
	Pix    []byte // len = Width * Height * Mode.Channels()
	ICC    []byte // embedded ICC profile, nil if untagged
}

// New allocates a zeroed image.
func New(width, height int, mode Mode) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Mode:   mode,
		Pix:    make([]byte, width*height*mode.Channels()),
	}
}

// Validate checks that the pixel buffer matches the declared geometry.
func (img *Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", img.Width, img.Height)
	}
	expected := img.Width * img.Height * img.Mode.Channels()
	if len(img.Pix) != expected {
		return fmt.Errorf("expected %d %s bytes, got %d", expected, img.Mode, len(img.Pix))
	}
	return nil
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Mode: img.Mode}
	out.Pix = append([]byte(nil), img.Pix...)
	if img.ICC != nil {
		out.ICC = append([]byte(nil), img.ICC...)
	}
	return out
}

// Representation implements Output.
func (img *Image) Representation() Representation { return RepresentationImage }

func (*Image) sealed() {}

// FromImage copies a decoded image into an Image. CMYK and grayscale
// sources keep their native layout; everything else becomes RGB with any
// alpha channel dropped.
func FromImage(src image.Image, icc []byte) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch s := src.(type) {
	case *image.CMYK:
		out := New(w, h, ModeCMYK)
		for y := 0; y < h; y++ {
			row := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out.Pix[y*w*4:(y+1)*w*4], row[:w*4])
		}
		out.ICC = icc
		return out
	case *image.Gray:
		out := New(w, h, ModeGray)
		for y := 0; y < h; y++ {
			row := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out.Pix[y*w:(y+1)*w], row[:w])
		}
		out.ICC = icc
		return out
	case *image.Gray16:
		out := New(w, h, ModeGray)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Pix[y*w+x] = color.GrayModel.Convert(s.Gray16At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
		out.ICC = icc
		return out
	}

	nrgba, ok := src.(*image.NRGBA)
	if !ok || nrgba.Bounds().Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Copy(nrgba, image.Point{}, src, b, draw.Src, nil)
	}
	out := New(w, h, ModeRGB)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		dst := out.Pix[y*w*3:]
		for x := 0; x < w; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
	out.ICC = icc
	return out
}

// ToRGB returns an RGB copy. CMYK and gray values are mapped with the
// naive device formulas; no color management happens here.
func (img *Image) ToRGB() *Image {
	if img.Mode == ModeRGB {
		return img.Clone()
	}
	out := New(img.Width, img.Height, ModeRGB)
	n := img.Width * img.Height
	switch img.Mode {
	case ModeCMYK:
		for i := 0; i < n; i++ {
			r, g, b := color.CMYKToRGB(img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3])
			out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = r, g, b
		}
	case ModeGray:
		for i := 0; i < n; i++ {
			v := img.Pix[i]
			out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = v, v, v
		}
	}
	if img.ICC != nil {
		out.ICC = append([]byte(nil), img.ICC...)
	}
	return out
}

// Image returns a standard library view suitable for encoders. RGB images
// become opaque *image.NRGBA.
func (img *Image) Image() image.Image {
	r := image.Rect(0, 0, img.Width, img.Height)
	switch img.Mode {
	case ModeCMYK:
		return &image.CMYK{Pix: img.Pix, Stride: img.Width * 4, Rect: r}
	case ModeGray:
		return &image.Gray{Pix: img.Pix, Stride: img.Width, Rect: r}
	}
	out := image.NewNRGBA(r)
	n := img.Width * img.Height
	for i := 0; i < n; i++ {
		out.Pix[i*4] = img.Pix[i*3]
		out.Pix[i*4+1] = img.Pix[i*3+1]
		out.Pix[i*4+2] = img.Pix[i*3+2]
		out.Pix[i*4+3] = 0xff
	}
	return out
}

// ToRaw converts an RGB image into a float32 array with samples in [0,1].
func (img *Image) ToRaw() *RawArray {
	src := img
	if src.Mode != ModeRGB {
		src = src.ToRGB()
	}
	raw := &RawArray{
		Width:    src.Width,
		Height:   src.Height,
		Channels: 3,
		Data:     make([]float32, len(src.Pix)),
	}
	for i, v := range src.Pix {
		raw.Data[i] = float32(v) / 255
	}
	return raw
}
