// Package snappy implements the snappy compression scheme.
package snappy

import "github.com/klauspost/compress/snappy"

type Codec struct{}

func (c *Codec) String() string { return "snappy" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst[:cap(dst)], src), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return snappy.Decode(dst[:cap(dst)], src)
}
