package compression

import (
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor is a pass-through: useful for a store whose blobs are
// already small (single leaves) or when debugging a corruption report
// without compression in the way.
type NoCompressor struct{}

func (c *NoCompressor) Name() string { return "none" }

func (c *NoCompressor) Compress(data []byte, level int) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (c *NoCompressor) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (c *NoCompressor) MaxCompressedSize(uncompressedSize int) int {
	return uncompressedSize
}

// LZ4Compressor compresses node blobs with LZ4 block framing: the
// rippled-legacy on-disk framing most nodestore backends use for
// account-state and transaction leaves.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string { return "lz4" }

func (c *LZ4Compressor) Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("nodestore/compression: lz4 compress: %w", err)
	}
	return compressed[:n], nil
}

// Decompress expects uncompressedSize to be exact, which is why the
// entry framing in pebble.go/leveldb.go always records it alongside the
// compressed flag: an LZ4 block carries no length of its own, so without
// that recorded size this would otherwise have to guess a destination
// buffer and retry, which wastes an allocation per guess on every read.
func (c *LZ4Compressor) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	if uncompressedSize <= 0 {
		return nil, fmt.Errorf("nodestore/compression: lz4 decompress: unknown uncompressed size")
	}
	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, fmt.Errorf("nodestore/compression: lz4 decompress: %w", err)
	}
	return out[:n], nil
}

func (c *LZ4Compressor) MaxCompressedSize(uncompressedSize int) int {
	return lz4.CompressBlockBound(uncompressedSize)
}
