// Package zstdcodec compresses shards with zstd, the default for disk
// and bucket caches.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/gamereview/internal/codec"
)

var _ codec.Codec = Codec{}

// Codec is stateless; each call builds its own encoder or decoder.
type Codec struct{}

// New returns the zstd codec.
func New() Codec { return Codec{} }

// Reader decodes on the calling goroutine only. Shards are small and
// several are often read at once.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

// Writer encodes at the default speed, since shards are rewritten after
// every batch of newly analyzed positions.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
}

// Extension returns "zst".
func (Codec) Extension() string {
	return "zst"
}
