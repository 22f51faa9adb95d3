// Package compression frames stored values, optionally compressing them.
//
// A frame is one flag byte naming the codec, the uvarint length of the
// original value, then the payload. Values the codec cannot shrink are
// stored raw, so any frame decodes without knowing the writer's setting.
package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

var ErrCorruptFrame = errors.New("corrupt compressed frame")

// Frame flags.
const (
	FlagRaw byte = 0
	FlagLZ4 byte = 1
)

// Compressor is a block codec.
type Compressor interface {
	Name() string
	Flag() byte

	// Compress returns nil when data does not compress.
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, size int) ([]byte, error)
}

// Factory is a function that creates a new compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
	byFlag      = make(map[byte]Factory)
)

// Register registers a compressor factory under its name and flag.
func Register(factory Factory) {
	c := factory()
	mu.Lock()
	defer mu.Unlock()
	compressors[c.Name()] = factory
	byFlag[c.Flag()] = factory
}

// Get returns a new compressor instance for the given name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// IsAvailable checks if a compressor with the given name is available.
func IsAvailable(name string) bool {
	mu.RLock()
	_, ok := compressors[name]
	mu.RUnlock()
	return ok
}

// Encode frames data with c.
func Encode(c Compressor, data []byte) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	n := binary.PutUvarint(header[1:], uint64(len(data)))
	header = header[:1+n]

	payload, err := c.Compress(data)
	if err != nil {
		return nil, err
	}
	if payload == nil || len(payload) >= len(data) {
		header[0] = FlagRaw
		payload = data
	} else {
		header[0] = c.Flag()
	}

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	return append(out, payload...), nil
}

// Decode reverses Encode for any registered codec.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, ErrCorruptFrame
	}
	size, n := binary.Uvarint(frame[1:])
	if n <= 0 {
		return nil, ErrCorruptFrame
	}
	payload := frame[1+n:]

	if frame[0] == FlagRaw {
		if uint64(len(payload)) != size {
			return nil, ErrCorruptFrame
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}

	mu.RLock()
	factory, ok := byFlag[frame[0]]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown flag %d", ErrCorruptFrame, frame[0])
	}
	out, err := factory().Decompress(payload, int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
	}
	return out, nil
}

func init() {
	Register(func() Compressor { return NoCompressor{} })
	Register(func() Compressor { return LZ4Compressor{} })
}
