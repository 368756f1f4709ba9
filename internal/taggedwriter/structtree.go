package taggedwriter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/inklutec/accesspdf/internal/pdfio"
)

var (
	structTreeRootEntryRe = regexp.MustCompile(`/StructTreeRoot\s+\d+\s+\d+\s+R`)
	markInfoEntryRe       = regexp.MustCompile(`/MarkInfo\s*<<[^>]*>>`)
	structParentsEntryRe  = regexp.MustCompile(`/StructParents\s+\d+`)
)

func pageObjID(pageKey string) int {
	id, _, _ := pdfio.ParseObjKey(pageKey)
	return id
}

// writeFigureObjects allocates one /Figure StructElem per figure, each
// carrying its own single-entry /K marked-content reference.
func writeFigureObjects(objMap pdfio.ObjectMap, figures []figure, docElemID int) {
	for _, f := range figures {
		pageID := pageObjID(f.pageKey)
		body := fmt.Sprintf(
			" << /Type /StructElem /S /Figure /P %d 0 R /Pg %d 0 R /Alt (%s) /K << /Type /MCR /MCID %d /Pg %d 0 R >> >>\n",
			docElemID, pageID, pdfio.EscapePDFString(f.altText), f.mcid, pageID,
		)
		objMap[f.ref] = []byte(body)
	}
}

// writeDocElem allocates the single /Document StructElem that is the root
// content's sole child, with /K listing every figure in page-then-index order.
func writeDocElem(objMap pdfio.ObjectMap, docElemID, structTreeRootID int, figures []figure) {
	var kids strings.Builder
	for i, f := range figures {
		if i > 0 {
			kids.WriteByte(' ')
		}
		kids.WriteString(f.ref)
		kids.WriteString(" R")
	}
	body := fmt.Sprintf(" << /Type /StructElem /S /Document /P %d 0 R /K [%s] >>\n",
		structTreeRootID, kids.String())
	objMap[fmt.Sprintf("%d 0", docElemID)] = []byte(body)
}

// writeParentTree emits one /Nums entry per page that carries figures,
// mapping page number to the array of that page's figure references.
func writeParentTree(objMap pdfio.ObjectMap, parentTreeID int, pageKeys []string, figures []figure) {
	byPage := sortedPageFigures(pageKeys, figures)

	var nums strings.Builder
	for pageIdx, pageKey := range pageKeys {
		pageFigures, ok := byPage[pageKey]
		if !ok || len(pageFigures) == 0 {
			continue
		}
		if nums.Len() > 0 {
			nums.WriteByte(' ')
		}
		fmt.Fprintf(&nums, "%d [", pageIdx+1)
		for i, f := range pageFigures {
			if i > 0 {
				nums.WriteByte(' ')
			}
			nums.WriteString(f.ref)
			nums.WriteString(" R")
		}
		nums.WriteString("]")
	}
	body := fmt.Sprintf(" << /Type /ParentTree /Nums [%s] >>\n", nums.String())
	objMap[fmt.Sprintf("%d 0", parentTreeID)] = []byte(body)
}

func writeStructTreeRoot(objMap pdfio.ObjectMap, structTreeRootID, docElemID, parentTreeID int) {
	body := fmt.Sprintf(" << /Type /StructTreeRoot /K %d 0 R /ParentTree %d 0 R >>\n", docElemID, parentTreeID)
	objMap[fmt.Sprintf("%d 0", structTreeRootID)] = []byte(body)
}

// patchCatalog sets /StructTreeRoot and /MarkInfo on the document catalog.
func patchCatalog(objMap pdfio.ObjectMap, raw []byte, structTreeRootID int) {
	rootRef, ok := pdfio.FindRootRef(raw)
	if !ok {
		return
	}
	body, ok := objMap[rootRef]
	if !ok {
		return
	}
	if structTreeRootEntryRe.Match(body) {
		body = structTreeRootEntryRe.ReplaceAll(body, []byte(fmt.Sprintf("/StructTreeRoot %d 0 R", structTreeRootID)))
	} else {
		body = insertBeforeClosingDict(body, []byte(fmt.Sprintf(" /StructTreeRoot %d 0 R", structTreeRootID)))
	}
	if !markInfoEntryRe.Match(body) {
		body = insertBeforeClosingDict(body, []byte(" /MarkInfo << /Marked true >>"))
	}
	objMap[rootRef] = body
}

// patchPagesAndContent sets /StructParents on every tagged page and rewrites
// its content stream(s) with BDC/EMC marked-content wrappers.
func patchPagesAndContent(objMap pdfio.ObjectMap, pageKeys []string, figures []figure) {
	byPage := sortedPageFigures(pageKeys, figures)
	for pageIdx, pageKey := range pageKeys {
		pageFigures, ok := byPage[pageKey]
		if !ok || len(pageFigures) == 0 {
			continue
		}
		pageBody := objMap[pageKey]
		if structParentsEntryRe.Match(pageBody) {
			pageBody = structParentsEntryRe.ReplaceAll(pageBody, []byte(fmt.Sprintf("/StructParents %d", pageIdx+1)))
		} else {
			pageBody = insertBeforeClosingDict(pageBody, []byte(fmt.Sprintf(" /StructParents %d", pageIdx+1)))
		}
		objMap[pageKey] = pageBody
		rewritePageContent(objMap, objMap[pageKey], pageFigures)
	}
}
