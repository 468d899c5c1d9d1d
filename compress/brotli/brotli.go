// Package brotli implements the brotli compression scheme.
package brotli

import (
	"io"

	"github.com/andybalholm/brotli"

	"github.com/strata-go/strata-go/compress/internal/pool"
)

const (
	DefaultQuality = 6
)

type Codec struct {
	Quality int

	compressor   pool.Compressor
	decompressor pool.Decompressor
}

func (c *Codec) String() string { return "brotli" }

func (c *Codec) quality() int {
	if c.Quality == 0 {
		return DefaultQuality
	}
	return c.Quality
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.compressor.Encode(dst[:0], src, func(w io.Writer) (pool.Writer, error) {
		return brotli.NewWriterLevel(w, c.quality()), nil
	})
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.decompressor.Decode(dst[:0], src, func(r io.Reader) (pool.Reader, error) {
		return &reader{brotli.NewReader(r)}, nil
	})
}

// reader adapts brotli.Reader which has no Close and whose Reset reuses the
// decoder state.
type reader struct{ *brotli.Reader }

func (r *reader) Close() error { return nil }

func (r *reader) Reset(rr io.Reader) error { return r.Reader.Reset(rr) }
