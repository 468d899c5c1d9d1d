// Package compress provides the block compression codecs applied beneath
// physical encodings.
//
// Codecs are resolved by the free-form scheme name carried in the encoding
// descriptor, so new schemes can be introduced without changing the
// descriptor schema.
package compress

import (
	"errors"
	"fmt"

	"github.com/strata-go/strata-go/compress/internal/pool"
)

// ErrUnknownScheme is returned by Lookup for compression scheme names this
// build does not recognize.
var ErrUnknownScheme = errors.New("compress: unknown compression scheme")

// Codec is the interface implemented by the compression subpackages.
//
// Encode and Decode write into dst, reusing its capacity when possible, and
// return the resulting slice; dst may be nil. Implementations must be safe
// for concurrent use.
type Codec interface {
	// String returns the scheme name the codec resolves from.
	String() string

	Encode(dst, src []byte) ([]byte, error)

	Decode(dst, src []byte) ([]byte, error)
}

// Config records how a buffer was compressed: the scheme name plus the
// optional level the writer used. It is retained on constructed schedulers so
// callers can introspect them.
type Config struct {
	Scheme string
	Level  *int32
}

// IsNone reports whether the configuration means bytes are stored as-is.
func (c Config) IsNone() bool {
	return c.Scheme == "" || c.Scheme == "none"
}

func (c Config) String() string {
	if c.IsNone() {
		return "none"
	}
	if c.Level == nil {
		return c.Scheme
	}
	return fmt.Sprintf("%s(%d)", c.Scheme, *c.Level)
}

// Reader is an extension of io.Reader implemented by the decompressors.
type Reader = pool.Reader

// Writer is an extension of io.Writer implemented by the compressors.
type Writer = pool.Writer

// Compressor implements the encoding side of streaming codecs, pooling the
// underlying writers to amortize their construction cost.
type Compressor = pool.Compressor

// Decompressor implements the decoding side of streaming codecs, pooling the
// underlying readers.
type Decompressor = pool.Decompressor
