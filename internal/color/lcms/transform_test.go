package lcms

import (
	"testing"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/icc"
)

func TestLcms2Linkage(t *testing.T) {
	ver := Version()
	if ver == 0 {
		t.Fatal("lcms2 version returned 0")
	}
	t.Logf("lcms2 encoded CMM version: %d", ver)
}

func TestTransformKnownPixels(t *testing.T) {
	xform, err := NewTransform(icc.SRGBv4Profile, icc.CGATS001Profile, ir.ModeRGB, ir.ModeCMYK, color.IntentPerceptual)
	require.NoError(t, err)
	defer xform.Close()

	img := &ir.Image{Width: 3, Height: 1, Mode: ir.ModeRGB, Pix: []byte{
		255, 255, 255, // white
		0, 0, 0, // black
		255, 0, 0, // red
	}}

	cmyk, err := xform.Apply(img)
	require.NoError(t, err)
	require.Len(t, cmyk.Pix, 12)

	t.Logf("White -> C=%d M=%d Y=%d K=%d", cmyk.Pix[0], cmyk.Pix[1], cmyk.Pix[2], cmyk.Pix[3])
	assert.LessOrEqual(t, cmyk.Pix[3], byte(10), "white K")

	t.Logf("Black -> C=%d M=%d Y=%d K=%d", cmyk.Pix[4], cmyk.Pix[5], cmyk.Pix[6], cmyk.Pix[7])
	assert.Greater(t, cmyk.Pix[7], byte(200), "black K")

	t.Logf("Red   -> C=%d M=%d Y=%d K=%d", cmyk.Pix[8], cmyk.Pix[9], cmyk.Pix[10], cmyk.Pix[11])
	assert.Greater(t, cmyk.Pix[9], byte(100), "red M")
}

func TestConvertSoftProofRoundTrip(t *testing.T) {
	conv := NewConverter(color.IntentRelativeColorimetric)
	img := &ir.Image{Width: 1, Height: 1, Mode: ir.ModeRGB, Pix: []byte{255, 255, 255}}

	cmyk, err := conv.Convert(img, icc.SRGBv4Profile, icc.CGATS001Profile, ir.ModeCMYK)
	require.NoError(t, err)
	assert.Equal(t, ir.ModeCMYK, cmyk.Mode)
	assert.Equal(t, icc.CGATS001Profile, cmyk.ICC)

	rgb, err := conv.Convert(cmyk, icc.CGATS001Profile, icc.SRGBv4Profile, ir.ModeRGB)
	require.NoError(t, err)
	assert.Equal(t, ir.ModeRGB, rgb.Mode)
	for _, v := range rgb.Pix {
		assert.Greater(t, v, byte(240))
	}
	assert.Equal(t, []byte{255, 255, 255}, img.Pix, "input must not be modified")
}

func TestConvertSameProfile(t *testing.T) {
	conv := NewConverter(color.IntentPerceptual)
	img := &ir.Image{Width: 2, Height: 1, Mode: ir.ModeRGB, Pix: []byte{10, 128, 250, 0, 0, 0}}

	out, err := conv.Convert(img, icc.SRGBv4Profile, icc.SRGBv4Profile, ir.ModeRGB)
	require.NoError(t, err)
	for i := range img.Pix {
		assert.InDelta(t, int(img.Pix[i]), int(out.Pix[i]), 2)
	}
}

func TestConvertErrors(t *testing.T) {
	conv := NewConverter(color.IntentPerceptual)
	rgb := &ir.Image{Width: 1, Height: 1, Mode: ir.ModeRGB, Pix: []byte{1, 2, 3}}
	cmyk := &ir.Image{Width: 1, Height: 1, Mode: ir.ModeCMYK, Pix: []byte{1, 2, 3, 4}}

	tests := []struct {
		description string
		img         *ir.Image
		src, dst    []byte
		mode        ir.Mode
	}{
		{
			description: "gray output refused",
			img:         rgb,
			src:         icc.SRGBv4Profile,
			dst:         icc.SRGBv4Profile,
			mode:        ir.ModeGray,
		},
		{
			description: "malformed profile",
			img:         rgb,
			src:         []byte("garbage profile bytes"),
			dst:         icc.SRGBv4Profile,
			mode:        ir.ModeRGB,
		},
		{
			description: "empty profile",
			img:         rgb,
			src:         nil,
			dst:         icc.SRGBv4Profile,
			mode:        ir.ModeRGB,
		},
		{
			description: "cmyk pixels with rgb profile",
			img:         cmyk,
			src:         icc.SRGBv4Profile,
			dst:         icc.SRGBv4Profile,
			mode:        ir.ModeRGB,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			_, err := conv.Convert(tc.img, tc.src, tc.dst, tc.mode)
			var convErr *color.ConversionError
			require.ErrorAs(t, err, &convErr)
			assert.Equal(t, "ColorConversionError", convErr.Kind())
		})
	}
}
