package jpeg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkICCRoundTrip(t *testing.T) {
	tests := []struct {
		description string
		size        int
		wantChunks  int
	}{
		{description: "single chunk", size: 3144, wantChunks: 1},
		{description: "exact chunk boundary", size: iccChunkMax, wantChunks: 1},
		{description: "spills into second chunk", size: iccChunkMax + 1, wantChunks: 2},
		{description: "several chunks", size: 3*iccChunkMax + 17, wantChunks: 4},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			profile := bytes.Repeat([]byte{0xab, 0xcd, 0xef}, tc.size/3+1)[:tc.size]

			chunks, err := ChunkICC(profile)
			require.NoError(t, err)
			assert.Len(t, chunks, tc.wantChunks)

			// reverse order must still reassemble
			rev := make([][]byte, len(chunks))
			for i, c := range chunks {
				rev[len(chunks)-1-i] = c
			}
			got, err := ExtractICC(rev)
			require.NoError(t, err)
			assert.Equal(t, profile, got)
		})
	}
}

func TestChunkICCEmpty(t *testing.T) {
	_, err := ChunkICC(nil)
	assert.Error(t, err)
}

func TestExtractICCIgnoresOtherMarkers(t *testing.T) {
	got, err := ExtractICC([][]byte{[]byte("FPXR\x00junk"), []byte("short")})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtractICCRejectsBrokenSequences(t *testing.T) {
	mk := func(seq, count byte) []byte {
		return append([]byte(iccSignature), seq, count, 1, 2, 3)
	}

	tests := []struct {
		description string
		markers     [][]byte
	}{
		{description: "zero sequence", markers: [][]byte{mk(0, 1)}},
		{description: "sequence beyond count", markers: [][]byte{mk(3, 2)}},
		{description: "count mismatch", markers: [][]byte{mk(1, 2), mk(2, 3)}},
		{description: "missing chunk", markers: [][]byte{mk(1, 2)}},
		{description: "duplicate chunk", markers: [][]byte{mk(1, 2), mk(1, 2)}},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			_, err := ExtractICC(tc.markers)
			assert.Error(t, err)
		})
	}
}
