// Package compression wraps zstd streams used for cache bundles.
package compression

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// DefaultLevel is the level used when callers pass 0.
const DefaultLevel = 2

// EncoderLevel maps levels 1..3 (fastest, default, better) to zstd
// encoder levels. Anything else falls back to zstd.SpeedDefault.
func EncoderLevel(level int) zstd.EncoderLevel {
	switch level {
	case 1:
		return zstd.SpeedFastest
	case 2:
		return zstd.SpeedDefault
	case 3:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

// NewWriter returns a zstd encoder writing to w. Close flushes the frame but
// does not close w.
func NewWriter(w io.Writer, level int) (*zstd.Encoder, error) {
	if level == 0 {
		level = DefaultLevel
	}
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(EncoderLevel(level)),
		zstd.WithEncoderConcurrency(1),
	)
}

// NewReader returns a zstd decoder reading from r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}
