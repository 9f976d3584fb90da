package upload

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

// CompressionLevel is the gzip level applied to text saves.
const CompressionLevel = 4

// Compress gzips data at CompressionLevel.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) / 4)

	zw, err := gzip.NewWriterLevel(&buf, CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("unable to compress: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("unable to compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("unable to compress: %w", err)
	}
	return buf.Bytes(), nil
}
