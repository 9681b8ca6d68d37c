package codec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/codec/gzipcodec"
	"github.com/discochess/gamereview/internal/codec/noopcodec"
	"github.com/discochess/gamereview/internal/codec/zstdcodec"
)

func TestEncodeDecode(t *testing.T) {
	shard := []byte(strings.Repeat(`{"key":{"fen":"8/8/8/8/8/8/8/8 w - -"},"lines":[]}`+"\n", 50))

	tests := []struct {
		name  string
		codec codec.Codec
		ext   string
	}{
		{"gzip", gzipcodec.New(), "gz"},
		{"zstd", zstdcodec.New(), "zst"},
		{"noop", noopcodec.New(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.codec.Extension(); got != tt.ext {
				t.Errorf("Extension() = %q, want %q", got, tt.ext)
			}
			encoded, err := codec.Encode(tt.codec, shard)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if tt.ext != "" && len(encoded) >= len(shard) {
				t.Errorf("Encode() did not compress: %d >= %d bytes", len(encoded), len(shard))
			}
			decoded, err := codec.Decode(tt.codec, encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(decoded, shard) {
				t.Error("Decode(Encode(x)) != x")
			}
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	for _, c := range []codec.Codec{gzipcodec.New(), zstdcodec.New()} {
		if _, err := codec.Decode(c, []byte("not compressed")); err == nil {
			t.Errorf("%s: Decode() of garbage should fail", c.Extension())
		}
	}
}
