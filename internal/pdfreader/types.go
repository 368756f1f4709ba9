// Package pdfreader implements the PDF Reader component: it opens a source
// PDF and, per page, enumerates the page rectangle, plain text, embedded
// raster images, and vector drawing items that feed the cluster detector.
package pdfreader

import "github.com/inklutec/accesspdf/internal/geom"

// RasterImage is one embedded raster XObject found on a page.
type RasterImage struct {
	Xref   int         // PDF object id
	Name   string      // resource name used with the Do operator
	Bytes  []byte      // decoded image bytes, already JPEG/PNG-encoded
	Ext    string       // "jpeg", "png", ...
	Width  int
	Height int
	Rects  []geom.Rect // every on-page rectangle this XObject is drawn into
}

// VectorItem is one closed path drawn with vector operators, contributing
// to the vector-cluster detector's input.
type VectorItem struct {
	Rect      geom.Rect
	ItemCount int // number of path-construction operators (m/l/c/v/y/re) in this path
}

// Page is one page's worth of discovered content.
type Page struct {
	Number  int
	Rect    geom.Rect
	Text    string
	Images  []RasterImage
	Vectors []VectorItem
}
