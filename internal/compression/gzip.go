// Package compression handles gzip-wrapped record values and report files.
package compression

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

var gzipMagic = []byte{0x1f, 0x8b}

// MaxInflatedSize bounds a decompressed record value.
const MaxInflatedSize int64 = 16 << 20

// ErrTooLarge is returned when decompressed data exceeds its limit.
var ErrTooLarge = errors.New("decompressed data exceeds limit")

// IsGzip reports whether b starts with the gzip header.
func IsGzip(b []byte) bool {
	return bytes.HasPrefix(b, gzipMagic)
}

// Gzip compresses src into dst and returns the number of uncompressed bytes read.
func Gzip(dst io.Writer, src io.Reader) (int64, error) {
	gz := gzip.NewWriter(dst)

	n, err := io.Copy(gz, src)
	if err != nil {
		_ = gz.Close()
		return n, fmt.Errorf("gzip copy: %w", err)
	}

	// gzip writes the footer on Close.
	if err := gz.Close(); err != nil {
		return n, fmt.Errorf("gzip close: %w", err)
	}
	return n, nil
}

// Gunzip decompresses src into dst. With limit > 0, writing more than limit
// bytes fails with ErrTooLarge.
func Gunzip(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	gr, err := gzip.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()

	var r io.Reader = gr
	if limit > 0 {
		r = io.LimitReader(gr, limit+1)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		return n, fmt.Errorf("gunzip copy: %w", err)
	}
	if limit > 0 && n > limit {
		return n, fmt.Errorf("gunzip: %w (%d bytes)", ErrTooLarge, limit)
	}
	return n, nil
}

// Inflate returns b decompressed when it is gzip data, or b unchanged.
// Output is capped at MaxInflatedSize.
func Inflate(b []byte) ([]byte, error) {
	if !IsGzip(b) {
		return b, nil
	}
	var out bytes.Buffer
	if _, err := Gunzip(&out, bytes.NewReader(b), MaxInflatedSize); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
