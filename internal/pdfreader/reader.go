package pdfreader

import (
	"fmt"
	"log"
	"os"

	"github.com/inklutec/accesspdf/internal/geom"
	"github.com/inklutec/accesspdf/internal/pdfio"
)

// Reader holds a parsed PDF's object map and page list for repeated access.
type Reader struct {
	path     string
	raw      []byte
	objMap   pdfio.ObjectMap
	pageKeys []string // index 0 == page 1
}

// Open parses path into an object map and walks its page tree. Returns
// pdfio.ErrSourceCorrupt (wrapped) if the file cannot be parsed at all.
func Open(path string) (*Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfreader: read %s: %w", path, err)
	}
	objMap, err := pdfio.BuildObjectMap(raw)
	if err != nil {
		return nil, fmt.Errorf("pdfreader: %s: %w", path, err)
	}
	r := &Reader{path: path, raw: raw, objMap: objMap}
	if err := pdfio.WalkPages(objMap, raw, func(key string, num int) {
		r.pageKeys = append(r.pageKeys, key)
	}); err != nil {
		return nil, fmt.Errorf("pdfreader: %s: %w", path, err)
	}
	return r, nil
}

// Close releases the reader's in-memory buffers. Kept for symmetry with
// io.Closer-shaped callers (go-fitz documents, os.File) even though there
// is nothing to release beyond GC'ing the byte slices.
func (r *Reader) Close() error { return nil }

// PageCount returns the number of pages discovered in the page tree.
func (r *Reader) PageCount() int { return len(r.pageKeys) }

// Page parses and returns one page (1-based). Images that cannot be decoded
// are skipped. The only error is a page number outside 1..PageCount; a page
// whose content stream is missing or unreadable comes back with no text,
// vectors or images.
func (r *Reader) Page(pageNum int) (*Page, error) {
	if pageNum < 1 || pageNum > len(r.pageKeys) {
		return nil, fmt.Errorf("pdfreader: page %d out of range (1..%d)", pageNum, len(r.pageKeys))
	}
	key := r.pageKeys[pageNum-1]
	body := r.objMap[key]

	box := pdfio.ExtractMediaBox(body, r.objMap)
	rect := geom.NewRect(box[0], box[1], box[2], box[3])

	content := pdfio.DecodedPageContent(body, r.objMap)
	resources := pdfio.ResourcesBody(body, r.objMap)
	xobjRefs := pdfio.XObjectRefs(resources, r.objMap)

	vectors, placements := scanContent(content, xobjRefs)

	page := &Page{
		Number:  pageNum,
		Rect:    rect,
		Text:    extractPlainText(content),
		Vectors: vectors,
	}

	for name, ref := range xobjRefs {
		rects, used := placements[name]
		if !used {
			continue
		}
		objBody, ok := r.objMap[ref]
		if !ok {
			continue
		}
		data, ext, w, h, ok := decodeImageXObject(objBody)
		if !ok {
			continue // ImageSkipped: unsupported encoding or not an image XObject
		}
		xref, _, parsed := pdfio.ParseObjKey(ref)
		if !parsed {
			continue
		}
		page.Images = append(page.Images, RasterImage{
			Xref:   xref,
			Name:   name,
			Bytes:  data,
			Ext:    ext,
			Width:  w,
			Height: h,
			Rects:  rects,
		})
	}

	return page, nil
}

// Pages returns every page in order, logging and skipping any page for
// which Page reports an error (never fatal for the whole document).
func (r *Reader) Pages() []*Page {
	pages := make([]*Page, 0, len(r.pageKeys))
	for i := 1; i <= len(r.pageKeys); i++ {
		p, err := r.Page(i)
		if err != nil {
			log.Printf("pdfreader: skipping page %d of %s: %v", i, r.path, err)
			continue
		}
		pages = append(pages, p)
	}
	return pages
}
