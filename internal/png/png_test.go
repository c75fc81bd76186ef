package png

import (
	"bytes"
	"image"
	"image/color"
	stdpng "image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEmbedsProfile(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 10, B: 20, A: 255})
	profile := bytes.Repeat([]byte("profile"), 100)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, profile))

	got, err := ReadICC(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, profile, got)

	decoded, err := stdpng.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err, "iCCP chunk must keep the stream valid")
	r, g, b, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, []uint32{200, 10, 20}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestEmbedICCReplaces(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, stdpng.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))

	none, err := ReadICC(buf.Bytes())
	require.NoError(t, err)
	assert.Nil(t, none)

	once, err := EmbedICC(buf.Bytes(), []byte("old"))
	require.NoError(t, err)
	twice, err := EmbedICC(once, []byte("new"))
	require.NoError(t, err)

	got, err := ReadICC(twice)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
	assert.Equal(t, 1, bytes.Count(twice, []byte("iCCP")))
}

func TestReadICCRejectsNonPNG(t *testing.T) {
	_, err := ReadICC([]byte{0xff, 0xd8, 0xff})
	assert.Error(t, err)
}
