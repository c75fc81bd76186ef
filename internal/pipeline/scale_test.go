package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeScale(t *testing.T) {
	tests := []struct {
		name      string
		w, h, dim int
		want      int
	}{
		{name: "landscape 2:1", w: 1000, h: 500, dim: 512, want: 724},
		{name: "portrait 1:2", w: 500, h: 1000, dim: 512, want: 724},
		{name: "square", w: 800, h: 800, dim: 512, want: 512},
		{name: "4:1", w: 4000, h: 1000, dim: 300, want: 600},
		{name: "floors", w: 3, h: 2, dim: 100, want: 122},
		{name: "zero width", w: 0, h: 500, dim: 512, want: 0},
		{name: "zero height", w: 500, h: 0, dim: 512, want: 0},
		{name: "negative side", w: -3, h: 500, dim: 512, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeScale(tt.w, tt.h, tt.dim))
		})
	}
}

func TestSafeScaleSymmetricAndMonotonic(t *testing.T) {
	sizes := [][2]int{{640, 480}, {1920, 1080}, {1, 7}, {333, 1000}}
	for _, s := range sizes {
		assert.Equal(t, SafeScale(s[0], s[1], 512), SafeScale(s[1], s[0], 512))
	}

	prev := 0
	for dim := 64; dim <= 2048; dim *= 2 {
		got := SafeScale(1600, 900, dim)
		assert.GreaterOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, dim)
		prev = got
	}
}

func TestLargestSide(t *testing.T) {
	assert.Equal(t, 2000, LargestSide(2000, 1000))
	assert.Equal(t, 1000, LargestSide(10, 1000))
	assert.Equal(t, 7, LargestSide(7, 7))
}

func TestScaleOptions(t *testing.T) {
	assert.Equal(t, 2000, ScaleOptions{}.EndScale(2000, 1000))
	assert.Equal(t, 724, ScaleOptions{Policy: ScaleSafe}.EndScale(1000, 500))
	assert.Equal(t, 1448, ScaleOptions{Policy: ScaleSafe, MemoryDim: 1024}.EndScale(1000, 500))

	p, err := ParseScalePolicy("SAFE")
	require.NoError(t, err)
	assert.Equal(t, ScaleSafe, p)
	p, err = ParseScalePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ScaleLargestSide, p)
	_, err = ParseScalePolicy("smallest")
	assert.Error(t, err)
}
