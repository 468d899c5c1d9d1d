// Package gzip implements the gzip compression scheme.
package gzip

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/strata-go/strata-go/compress/internal/pool"
)

const (
	NoCompression      = gzip.NoCompression
	BestSpeed          = gzip.BestSpeed
	BestCompression    = gzip.BestCompression
	DefaultCompression = gzip.DefaultCompression
)

type Codec struct {
	Level int

	compressor   pool.Compressor
	decompressor pool.Decompressor
}

func (c *Codec) String() string { return "gzip" }

func (c *Codec) level() int {
	if c.Level == 0 {
		return DefaultCompression
	}
	return c.Level
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.compressor.Encode(dst[:0], src, func(w io.Writer) (pool.Writer, error) {
		return gzip.NewWriterLevel(w, c.level())
	})
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.decompressor.Decode(dst[:0], src, func(r io.Reader) (pool.Reader, error) {
		return gzip.NewReader(r)
	})
}
