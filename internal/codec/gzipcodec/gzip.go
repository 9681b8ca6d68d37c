// Package gzipcodec compresses shards with gzip for caches that other
// tools need to open.
package gzipcodec

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/discochess/gamereview/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = Codec{}

// Codec implements gzip compression.
type Codec struct{}

// New returns the gzip codec.
func New() Codec {
	return Codec{}
}

// Reader wraps r to decompress gzip data.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Writer wraps w to compress at gzip.BestSpeed. Shard payloads are
// repetitive JSON and compress well even at the fastest level.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestSpeed)
}

// Extension returns "gz".
func (Codec) Extension() string {
	return "gz"
}
