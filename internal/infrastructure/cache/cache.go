package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// VectorCache stores embedding vectors by key. GetMany returns one entry
// per key with nil for misses.
type VectorCache interface {
	GetMany(ctx context.Context, keys []string) ([][]float32, error)
	SetMany(ctx context.Context, entries map[string][]float32, ttl time.Duration) error
	Close() error
}

// encodeVector packs a vector as little-endian float32s
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
