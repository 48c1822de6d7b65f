package compression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoCompressorRoundTrip(t *testing.T) {
	c, err := Get("none")
	require.NoError(t, err)

	data := []byte("the quick brown fox jumps over the lazy dog")
	compressed, err := c.Compress(data, 0)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestLZ4CompressorRoundTrip(t *testing.T) {
	c, err := Get("lz4")
	require.NoError(t, err)

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 17)
	}

	compressed, err := c.Compress(data, 1)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestLZ4DecompressRequiresUncompressedSize(t *testing.T) {
	c, err := Get("lz4")
	require.NoError(t, err)

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	compressed, err := c.Compress(data, 1)
	require.NoError(t, err)

	_, err = c.Decompress(compressed, 0)
	require.Error(t, err)
}

func TestIsAvailable(t *testing.T) {
	require.True(t, IsAvailable("none"))
	require.True(t, IsAvailable("lz4"))
	require.False(t, IsAvailable("zstd-but-not-registered"))
}

func TestGetUnknownCompressor(t *testing.T) {
	_, err := Get("nope")
	require.Error(t, err)
}
