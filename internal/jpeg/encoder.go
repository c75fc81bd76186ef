package jpeg

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/gen2brain/jpegli"
)

// Quality is the fixed encoder quality for stylized output.
const Quality = 95

// EncoderOptions returns the jpegli settings used for every output: fixed
// quality and no chroma subsampling.
func EncoderOptions() *jpegli.EncodingOptions {
	return &jpegli.EncodingOptions{
		Quality:           Quality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
	}
}

// Encode writes img as a JPEG tagged with the given ICC profile.
func Encode(w io.Writer, img image.Image, profile []byte) error {
	var buf bytes.Buffer
	if err := jpegli.Encode(&buf, img, EncoderOptions()); err != nil {
		return fmt.Errorf("jpegli encode: %w", err)
	}
	tagged, err := EmbedICC(buf.Bytes(), profile)
	if err != nil {
		return fmt.Errorf("embedding ICC: %w", err)
	}
	_, err = w.Write(tagged)
	return err
}
