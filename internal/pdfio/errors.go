// Package pdfio holds the low-level, regex-driven PDF primitives shared by
// the reader and the tagged-PDF writer: object-map construction, stream
// decompression, page-tree walking, and the incremental-update serializer.
package pdfio

import "errors"

// ErrSourceCorrupt is returned when a PDF cannot be parsed well enough to
// locate its catalog and page tree at all.
var ErrSourceCorrupt = errors.New("pdfio: source PDF could not be parsed")
