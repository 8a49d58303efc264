package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned by Get when no checkpoint exists under the key
var ErrNotFound = errors.New("checkpoint not found")

// CompressedSuffix marks keys whose payload is stored zstd-compressed
const CompressedSuffix = ".zst"

// CheckpointStore persists stage artifacts by key
type CheckpointStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

func isCompressed(key string) bool {
	return strings.HasSuffix(key, CompressedSuffix)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(r io.Reader) ([]byte, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return data, nil
}
