// Package lz4 implements the lz4 frame compression scheme.
package lz4

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/strata-go/strata-go/compress/internal/pool"
)

type CompressionLevel = lz4.CompressionLevel

const (
	Fastest = lz4.Fast
	Level1  = lz4.Level1
	Level5  = lz4.Level5
	Level9  = lz4.Level9
)

type Codec struct {
	Level CompressionLevel

	compressor   pool.Compressor
	decompressor pool.Decompressor
}

func (c *Codec) String() string { return "lz4" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.compressor.Encode(dst[:0], src, func(w io.Writer) (pool.Writer, error) {
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(c.Level)); err != nil {
			return nil, err
		}
		return lw, nil
	})
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.decompressor.Decode(dst[:0], src, func(r io.Reader) (pool.Reader, error) {
		return &reader{lz4.NewReader(r)}, nil
	})
}

// reader adapts lz4.Reader to the pool.Reader interface; lz4 frames have
// no close state and Reset never fails.
type reader struct{ *lz4.Reader }

func (r *reader) Close() error { return nil }

func (r *reader) Reset(rr io.Reader) error {
	r.Reader.Reset(rr)
	return nil
}
