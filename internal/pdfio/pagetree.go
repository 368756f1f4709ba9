package pdfio

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	rootRefRe    = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
	pagesRefRe   = regexp.MustCompile(`/Pages\s+(\d+)\s+(\d+)\s+R`)
	typePageRe   = regexp.MustCompile(`/Type\s*/Page(\b|\s|/)`)
	typePagesRe  = regexp.MustCompile(`/Type\s*/Pages(\b|\s|/)`)
	kidsArrRe    = regexp.MustCompile(`/Kids\s*\[(.*?)\]`)
	kidsSingleRe = regexp.MustCompile(`/Kids\s+(\d+)\s+(\d+)\s+R`)
	refPairRe    = regexp.MustCompile(`(\d+)\s+(\d+)\s+R`)
	mediaBoxRe   = regexp.MustCompile(`/MediaBox\s*\[\s*([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s*\]`)
	mediaBoxRefR = regexp.MustCompile(`/MediaBox\s+(\d+)\s+(\d+)\s+R`)
)

// FindRootRef returns the "id gen" key of the document catalog.
func FindRootRef(pdfBytes []byte) (string, bool) {
	m := rootRefRe.FindSubmatch(pdfBytes)
	if m == nil {
		return "", false
	}
	return string(m[1]) + " " + string(m[2]), true
}

// IsTypePage reports whether a dictionary body is a /Type /Page leaf (and
// not a /Pages intermediate node — some producers set both keys loosely).
func IsTypePage(body []byte) bool {
	return typePageRe.Find(body) != nil && !IsTypePages(body)
}

// IsTypePages reports whether a dictionary body is a /Type /Pages node.
func IsTypePages(body []byte) bool {
	return typePagesRe.Find(body) != nil
}

// ExtractKidsRefs returns the "id gen" keys listed in a /Kids entry, array
// or single-ref form.
func ExtractKidsRefs(body []byte) []string {
	refs := make([]string, 0, 4)
	if m := kidsArrRe.FindSubmatch(body); m != nil {
		for _, r := range refPairRe.FindAllSubmatch(m[1], -1) {
			refs = append(refs, string(r[1])+" "+string(r[2]))
		}
		return refs
	}
	if m := kidsSingleRe.FindSubmatch(body); m != nil {
		refs = append(refs, string(m[1])+" "+string(m[2]))
	}
	return refs
}

// ExtractMediaBox resolves a page's /MediaBox, following an indirect
// reference if necessary, defaulting to A4 when absent.
func ExtractMediaBox(body []byte, objMap ObjectMap) [4]float64 {
	defaultBox := [4]float64{0, 0, 595.28, 841.89}
	match := mediaBoxRe.FindSubmatch(body)
	if match == nil {
		if refMatch := mediaBoxRefR.FindSubmatch(body); refMatch != nil {
			refKey := string(refMatch[1]) + " " + string(refMatch[2])
			if refBody, ok := objMap[refKey]; ok {
				match = mediaBoxRe.FindSubmatch(refBody)
				if match == nil {
					arrRe := regexp.MustCompile(`\[\s*([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s*\]`)
					match = arrRe.FindSubmatch(refBody)
				}
			}
		}
	}
	if match == nil {
		return defaultBox
	}
	x1, _ := strconv.ParseFloat(string(match[1]), 64)
	y1, _ := strconv.ParseFloat(string(match[2]), 64)
	x2, _ := strconv.ParseFloat(string(match[3]), 64)
	y2, _ := strconv.ParseFloat(string(match[4]), 64)
	return [4]float64{x1, y1, x2, y2}
}

// WalkPages visits every /Type /Page leaf reachable from the document's
// /Pages root, in document order, calling visit(pageKey, pageNumber (1-based)).
func WalkPages(objMap ObjectMap, pdfBytes []byte, visit func(pageKey string, pageNum int)) error {
	rootRef, ok := FindRootRef(pdfBytes)
	if !ok {
		return fmt.Errorf("pdfio: missing /Root: %w", ErrSourceCorrupt)
	}
	rootBody, ok := objMap[rootRef]
	if !ok {
		return fmt.Errorf("pdfio: dangling /Root ref: %w", ErrSourceCorrupt)
	}
	pm := pagesRefRe.FindSubmatch(rootBody)
	if pm == nil {
		return fmt.Errorf("pdfio: missing /Pages in catalog: %w", ErrSourceCorrupt)
	}
	pagesKey := string(pm[1]) + " " + string(pm[2])

	pageNum := 0
	var walk func(key string, depth int)
	walk = func(key string, depth int) {
		if depth > 64 {
			return
		}
		body, ok := objMap[key]
		if !ok {
			return
		}
		if IsTypePages(body) {
			for _, kid := range ExtractKidsRefs(body) {
				walk(kid, depth+1)
			}
			return
		}
		if IsTypePage(body) {
			pageNum++
			visit(key, pageNum)
		}
	}
	walk(pagesKey, 0)
	return nil
}

// FindPageObject returns the object key of the nth page (1-based).
func FindPageObject(objMap ObjectMap, pdfBytes []byte, targetPage int) (string, error) {
	var found string
	err := WalkPages(objMap, pdfBytes, func(pageKey string, pageNum int) {
		if pageNum == targetPage {
			found = pageKey
		}
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("pdfio: page %d not found", targetPage)
	}
	return found, nil
}
