package taggedwriter

import (
	"bytes"

	"github.com/inklutec/accesspdf/internal/pdfio"
)

// insertBeforeClosingDict appends extra bytes just before the last ">>" of
// body's dictionary header, the simplest reliable way to add a key to a
// shallow PDF dictionary without a full tokenizing parser. Stream objects
// (image XObjects among them) carry binary data after "stream" that can
// itself contain the byte pair ">>", so the search is restricted to the
// portion of body preceding the stream keyword when one is present;
// non-stream dictionaries (catalog, page) search the whole body.
func insertBeforeClosingDict(body []byte, extra []byte) []byte {
	header := body
	if streamBody, ok := pdfio.ExtractStreamBody(body); ok {
		if i := bytes.Index(body, streamBody); i >= 0 {
			header = body[:i]
		}
	}
	idx := bytes.LastIndex(header, []byte(">>"))
	if idx < 0 {
		return append(append([]byte{}, body...), extra...)
	}
	out := make([]byte, 0, len(body)+len(extra))
	out = append(out, body[:idx]...)
	out = append(out, extra...)
	out = append(out, body[idx:]...)
	return out
}
