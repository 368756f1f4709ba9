package pdfio

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"
)

// bytesIndex finds a subsequence in b; a thin wrapper kept for readability
// at call sites that search dictionary bodies for PDF name tokens.
func bytesIndex(b, sub []byte) int {
	return bytes.Index(b, sub)
}

// tryZlibDecompress attempts to inflate a zlib-wrapped stream.
func tryZlibDecompress(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// tryFlateDecompress attempts to inflate a raw (non-zlib-wrapped) deflate stream.
func tryFlateDecompress(b []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Inflate tries zlib framing first, then raw flate, returning the raw bytes
// unchanged if neither succeeds (stream was stored uncompressed).
func Inflate(raw []byte) []byte {
	if d, err := tryZlibDecompress(raw); err == nil {
		return d
	}
	if d, err := tryFlateDecompress(raw); err == nil {
		return d
	}
	return raw
}

// Deflate re-compresses with zlib framing, matching the /FlateDecode filter
// readers expect on the way back in.
func Deflate(decoded []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(decoded)
	_ = zw.Close()
	return buf.Bytes()
}
