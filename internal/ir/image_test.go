package ir

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImageDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	img := FromImage(src, nil)

	require.NoError(t, img.Validate())
	assert.Equal(t, ModeRGB, img.Mode)
	assert.Equal(t, []byte{10, 20, 30, 200, 100, 50}, img.Pix)
}

func TestFromImageKeepsCMYK(t *testing.T) {
	src := image.NewCMYK(image.Rect(0, 0, 1, 1))
	src.SetCMYK(0, 0, color.CMYK{C: 1, M: 2, Y: 3, K: 4})

	img := FromImage(src, []byte("icc"))

	assert.Equal(t, ModeCMYK, img.Mode)
	assert.Equal(t, []byte{1, 2, 3, 4}, img.Pix)
	assert.Equal(t, []byte("icc"), img.ICC)
}

func TestFromImageSubImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(2, 2, color.Gray{Y: 99})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	img := FromImage(sub, nil)

	require.NoError(t, img.Validate())
	assert.Equal(t, ModeGray, img.Mode)
	assert.Equal(t, byte(99), img.Pix[0])
}

func TestToRGB(t *testing.T) {
	tests := []struct {
		description string
		img         *Image
		want        []byte
	}{
		{
			description: "gray replicates",
			img:         &Image{Width: 1, Height: 1, Mode: ModeGray, Pix: []byte{7}},
			want:        []byte{7, 7, 7},
		},
		{
			description: "cmyk white",
			img:         &Image{Width: 1, Height: 1, Mode: ModeCMYK, Pix: []byte{0, 0, 0, 0}},
			want:        []byte{255, 255, 255},
		},
		{
			description: "cmyk full black",
			img:         &Image{Width: 1, Height: 1, Mode: ModeCMYK, Pix: []byte{0, 0, 0, 255}},
			want:        []byte{0, 0, 0},
		},
		{
			description: "rgb is copied",
			img:         &Image{Width: 1, Height: 1, Mode: ModeRGB, Pix: []byte{1, 2, 3}},
			want:        []byte{1, 2, 3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			got := tc.img.ToRGB()
			assert.Equal(t, ModeRGB, got.Mode)
			assert.Equal(t, tc.want, got.Pix)
		})
	}
}

func TestToRGBDoesNotAlias(t *testing.T) {
	img := &Image{Width: 1, Height: 1, Mode: ModeRGB, Pix: []byte{1, 2, 3}}
	out := img.ToRGB()
	out.Pix[0] = 9
	assert.Equal(t, byte(1), img.Pix[0])
}

func TestToRaw(t *testing.T) {
	img := &Image{Width: 1, Height: 1, Mode: ModeRGB, Pix: []byte{0, 255, 51}}
	raw := img.ToRaw()

	require.NoError(t, raw.Validate())
	assert.InDelta(t, 0.0, raw.Data[0], 1e-6)
	assert.InDelta(t, 1.0, raw.Data[1], 1e-6)
	assert.InDelta(t, 0.2, raw.Data[2], 1e-6)
}

func TestParseRepresentation(t *testing.T) {
	r, err := ParseRepresentation("RAW")
	require.NoError(t, err)
	assert.Equal(t, RepresentationRaw, r)

	r, err = ParseRepresentation("")
	require.NoError(t, err)
	assert.Equal(t, RepresentationImage, r)

	_, err = ParseRepresentation("numpy")
	assert.Error(t, err)
}
