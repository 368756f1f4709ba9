// Package taggedwriter implements the Tagged-PDF Writer: it injects a
// structure tree, parent tree, and marked-content sequences into a source
// PDF so assistive technology announces the supplied alt-texts, then saves
// atomically.
package taggedwriter

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/inklutec/accesspdf/internal/pdfio"
)

var altEntryRe = regexp.MustCompile(`/Alt\s*\((?:[^()\\]|\\.)*\)`)

// SyntheticXrefFloor is the threshold at and above which an xref is a
// vector-synthesized image with no backing PDF object.
const SyntheticXrefFloor = 900000

// ErrWriteFailed wraps any failure that prevents the tagged PDF from being
// produced; previously stored alt-texts in the caller's catalog are
// unaffected.
type ErrWriteFailed struct{ Err error }

func (e *ErrWriteFailed) Error() string { return fmt.Sprintf("taggedwriter: %v", e.Err) }
func (e *ErrWriteFailed) Unwrap() error { return e.Err }

type figure struct {
	xref    int
	pageKey string
	pageNum int
	mcid    int
	name    string
	altText string
	ref     string // allocated "id gen" of this figure's StructElem
}

// Write reads srcPath, attaches alt-text from altTexts (keyed by xref) to
// every mappable image, builds the structure/parent tree, rewrites each
// affected page's content stream with BDC/EMC markers, and atomically
// writes the result to dstPath. Synthetic xrefs (>= SyntheticXrefFloor) are
// silently dropped — they have no backing PDF object to tag.
func Write(srcPath, dstPath string, altTexts map[int]string) error {
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return &ErrWriteFailed{Err: err}
	}

	objMap, err := pdfio.BuildObjectMap(raw)
	if err != nil {
		return &ErrWriteFailed{Err: err}
	}

	var pageKeys []string
	if err := pdfio.WalkPages(objMap, raw, func(key string, num int) {
		pageKeys = append(pageKeys, key)
	}); err != nil {
		return &ErrWriteFailed{Err: err}
	}

	figures, err := collectFigures(objMap, pageKeys, altTexts)
	if err != nil {
		return &ErrWriteFailed{Err: err}
	}

	if err := setAltOnImageXObjects(objMap, figures); err != nil {
		return &ErrWriteFailed{Err: err}
	}

	if len(figures) > 0 {
		nextID := maxObjectID(objMap) + 1
		structTreeRootID := nextID
		parentTreeID := nextID + 1
		docElemID := nextID + 2
		nextID += 3

		for i := range figures {
			figures[i].ref = fmt.Sprintf("%d 0", nextID)
			nextID++
		}

		writeFigureObjects(objMap, figures, docElemID)
		writeDocElem(objMap, docElemID, structTreeRootID, figures)
		writeParentTree(objMap, parentTreeID, pageKeys, figures)
		writeStructTreeRoot(objMap, structTreeRootID, docElemID, parentTreeID)
		patchCatalog(objMap, raw, structTreeRootID)
		patchPagesAndContent(objMap, pageKeys, figures)
	}

	out, err := pdfio.RebuildPDF(objMap, raw)
	if err != nil {
		return &ErrWriteFailed{Err: err}
	}

	tmp := dstPath + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		os.Remove(tmp)
		return &ErrWriteFailed{Err: err}
	}
	if err := os.Rename(tmp, dstPath); err != nil {
		os.Remove(tmp)
		return &ErrWriteFailed{Err: err}
	}
	return nil
}

// collectFigures walks pages in ascending order and, within each page,
// images in their first-appearance order in the content stream, assigning
// sequential zero-based MCIDs per page. Synthetic and unmapped xrefs are
// skipped.
func collectFigures(objMap pdfio.ObjectMap, pageKeys []string, altTexts map[int]string) ([]figure, error) {
	var figures []figure
	for pageNum, pageKey := range pageKeys {
		pageBody := objMap[pageKey]
		resources := pdfio.ResourcesBody(pageBody, objMap)
		xobjRefs := pdfio.XObjectRefs(resources, objMap)
		content := pdfio.DecodedPageContent(pageBody, objMap)
		orderedNames := orderedDoNames(content)

		mcid := 0
		for _, name := range orderedNames {
			ref, ok := xobjRefs[name]
			if !ok {
				continue
			}
			xref, _, parsed := pdfio.ParseObjKey(ref)
			if !parsed || xref >= SyntheticXrefFloor {
				continue
			}
			alt, ok := altTexts[xref]
			if !ok {
				continue
			}
			figures = append(figures, figure{
				xref:    xref,
				pageKey: pageKey,
				pageNum: pageNum + 1,
				mcid:    mcid,
				name:    name,
				altText: normalizeAltText(alt),
			})
			mcid++
		}
	}
	return figures, nil
}

// normalizeAltText applies the "dekorativ" sentinel rule: the literal string
// "dekorativ" is stored as-is but exported as empty.
func normalizeAltText(s string) string {
	if s == "dekorativ" {
		return ""
	}
	return s
}

func maxObjectID(objMap pdfio.ObjectMap) int {
	max := 0
	for key := range objMap {
		if id, _, ok := pdfio.ParseObjKey(key); ok && id > max {
			max = id
		}
	}
	return max
}

// setAltOnImageXObjects sets /Alt directly on each mapped image XObject
// dictionary as a fallback for readers that don't traverse the structure
// tree.
func setAltOnImageXObjects(objMap pdfio.ObjectMap, figures []figure) error {
	seen := make(map[int]bool)
	for _, f := range figures {
		if seen[f.xref] {
			continue
		}
		seen[f.xref] = true
		key := fmt.Sprintf("%d 0", f.xref)
		body, ok := objMap[key]
		if !ok {
			continue
		}
		entry := []byte("/Alt (" + pdfio.EscapePDFString(f.altText) + ")")
		if altEntryRe.Match(body) {
			objMap[key] = altEntryRe.ReplaceAll(body, entry)
		} else {
			objMap[key] = insertBeforeClosingDict(body, append([]byte(" "), entry...))
		}
	}
	return nil
}

// sortedPageFigures groups figures by page, preserving MCID order.
func sortedPageFigures(pageKeys []string, figures []figure) map[string][]figure {
	byPage := make(map[string][]figure)
	for _, f := range figures {
		byPage[f.pageKey] = append(byPage[f.pageKey], f)
	}
	for key := range byPage {
		sort.Slice(byPage[key], func(i, j int) bool { return byPage[key][i].mcid < byPage[key][j].mcid })
	}
	return byPage
}
