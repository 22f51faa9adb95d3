package compression

import (
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor stores values as they are.
type NoCompressor struct{}

func (NoCompressor) Name() string { return "none" }
func (NoCompressor) Flag() byte   { return FlagRaw }

func (NoCompressor) Compress(data []byte) ([]byte, error) {
	return nil, nil
}

func (NoCompressor) Decompress(data []byte, size int) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// hashTableSize matches the block compressor's match table.
const hashTableSize = 1 << 16

// LZ4Compressor uses lz4 block compression.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }
func (LZ4Compressor) Flag() byte   { return FlagLZ4 }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, make([]int, hashTableSize))
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		// incompressible
		return nil, nil
	}
	return compressed[:n], nil
}

func (LZ4Compressor) Decompress(data []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompressed %d bytes, want %d", n, size)
	}
	return out, nil
}
