// Package pool holds the streaming codec plumbing shared between the
// compress package and its scheme subpackages. It exists so the subpackages
// can use the pooled compressor types without importing compress itself,
// which imports them back for Lookup.
package pool

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// Reader is an extension of io.Reader implemented by the decompressors.
type Reader interface {
	io.ReadCloser
	Reset(io.Reader) error
}

// Writer is an extension of io.Writer implemented by the compressors.
type Writer interface {
	io.WriteCloser
	Reset(io.Writer)
}

// Compressor implements the encoding side of streaming codecs, pooling the
// underlying writers to amortize their construction cost.
type Compressor struct {
	writers sync.Pool // *writer
}

type writer struct {
	output bytes.Buffer
	writer Writer
}

// Encode compresses src with a writer obtained from newWriter and appends the
// result to dst.
func (c *Compressor) Encode(dst, src []byte, newWriter func(io.Writer) (Writer, error)) ([]byte, error) {
	w, _ := c.writers.Get().(*writer)
	if w != nil {
		w.output.Reset()
		w.writer.Reset(&w.output)
	} else {
		w = new(writer)
		var err error
		if w.writer, err = newWriter(&w.output); err != nil {
			return dst, err
		}
	}
	defer c.writers.Put(w)

	if _, err := w.writer.Write(src); err != nil {
		return dst, err
	}
	if err := w.writer.Close(); err != nil {
		return dst, err
	}
	return append(dst, w.output.Bytes()...), nil
}

// Decompressor implements the decoding side of streaming codecs, pooling the
// underlying readers.
type Decompressor struct {
	readers sync.Pool // *reader
}

type reader struct {
	input  bytes.Reader
	reader Reader
}

// Decode decompresses src with a reader obtained from newReader and appends
// the result to dst.
func (d *Decompressor) Decode(dst, src []byte, newReader func(io.Reader) (Reader, error)) ([]byte, error) {
	r, _ := d.readers.Get().(*reader)
	if r != nil {
		r.input.Reset(src)
		if err := r.reader.Reset(&r.input); err != nil {
			return dst, err
		}
	} else {
		r = new(reader)
		r.input.Reset(src)
		var err error
		if r.reader, err = newReader(&r.input); err != nil {
			return dst, err
		}
	}
	defer d.readers.Put(r)

	if cap(dst) == 0 {
		dst = make([]byte, 0, 2*len(src))
	}
	for {
		n, err := r.reader.Read(dst[len(dst):cap(dst)])
		dst = dst[:len(dst)+n]
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return dst, err
		}
		if len(dst) == cap(dst) {
			tmp := make([]byte, len(dst), 2*cap(dst))
			copy(tmp, dst)
			dst = tmp
		}
	}
}
