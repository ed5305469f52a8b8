package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// The SQL drivers store documents zstd-compressed. A single encoder and
// decoder are shared; EncodeAll and DecodeAll are safe for concurrent use.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Compress zstd-compresses a document for storage.
func Compress(doc []byte) []byte {
	return encoder.EncodeAll(doc, make([]byte, 0, len(doc)/4))
}

// Decompress reverses [Compress].
func Decompress(blob []byte) ([]byte, error) {
	doc, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("store: decompress: %w", err)
	}
	return doc, nil
}
