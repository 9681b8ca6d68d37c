// Package noopcodec stores shards as raw JSON lines. It keeps a disk cache
// readable with ordinary text tools at the cost of size.
package noopcodec

import (
	"io"

	"github.com/discochess/gamereview/internal/codec"
)

var _ codec.Codec = Codec{}

// Codec passes shard bytes through unchanged.
type Codec struct{}

// New returns the pass-through codec.
func New() Codec { return Codec{} }

// Reader hands r back, adding a no-op Close when r has none.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(r), nil
}

// Writer hands w back. Closing it never closes the destination file;
// the store owns that.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return passthrough{w}, nil
}

// Extension is empty so raw shards keep the bare NNNNN name.
func (Codec) Extension() string { return "" }

type passthrough struct{ io.Writer }

func (passthrough) Close() error { return nil }
