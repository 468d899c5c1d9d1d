package compress

import (
	"fmt"

	"github.com/strata-go/strata-go/compress/brotli"
	"github.com/strata-go/strata-go/compress/gzip"
	"github.com/strata-go/strata-go/compress/lz4"
	"github.com/strata-go/strata-go/compress/snappy"
	"github.com/strata-go/strata-go/compress/uncompressed"
	"github.com/strata-go/strata-go/compress/zstd"
)

// Lookup resolves a compression configuration to a codec.
//
// The empty scheme and "none" resolve to the identity codec. Unknown scheme
// names fail with ErrUnknownScheme; resolution happens before any I/O is
// scheduled so a forward-incompatible file is rejected up front.
func Lookup(config Config) (Codec, error) {
	switch config.Scheme {
	case "", "none":
		return &Uncompressed, nil
	case "snappy":
		return &Snappy, nil
	case "gzip":
		if config.Level == nil {
			return &Gzip, nil
		}
		return &gzip.Codec{Level: int(*config.Level)}, nil
	case "zstd":
		if config.Level == nil {
			return &Zstd, nil
		}
		return &zstd.Codec{Level: zstd.LevelFromZstd(int(*config.Level))}, nil
	case "lz4":
		if config.Level == nil {
			return &Lz4, nil
		}
		return &lz4.Codec{Level: lz4.CompressionLevel(int(*config.Level))}, nil
	case "brotli":
		if config.Level == nil {
			return &Brotli, nil
		}
		return &brotli.Codec{Quality: int(*config.Level)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, config.Scheme)
	}
}

// Default codec instances used when the descriptor carries no level.
var (
	Uncompressed uncompressed.Codec
	Snappy       snappy.Codec
	Gzip         gzip.Codec
	Zstd         zstd.Codec
	Lz4          lz4.Codec
	Brotli       brotli.Codec
)
