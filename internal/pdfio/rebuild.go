package pdfio

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	trailerRe  = regexp.MustCompile(`(?s)trailer\s*<<(.*?)>>`)
	trailerID  = regexp.MustCompile(`(?s)/ID\s*(\[(?:.|\n|\r)*?\])`)
	startXRef  = regexp.MustCompile(`(?s)startxref\s*(\d+)\s*%%EOF\s*$`)
	startXAny  = regexp.MustCompile(`startxref\s*(\d+)`)
)

// ExtractPrimaryTrailerID returns the raw "[<...> <...>]" /ID array text of
// a PDF's trailer, if present.
func ExtractPrimaryTrailerID(pdfBytes []byte) string {
	if len(pdfBytes) == 0 {
		return ""
	}
	if tm := trailerRe.FindSubmatch(pdfBytes); tm != nil {
		if idm := trailerID.FindSubmatch(tm[1]); idm != nil {
			return strings.TrimSpace(string(idm[1]))
		}
	}
	if idm := trailerID.FindSubmatch(pdfBytes); idm != nil {
		return strings.TrimSpace(string(idm[1]))
	}
	return ""
}

// ExtractLastStartXRef returns the byte offset named by the last
// "startxref" keyword in the file, the anchor the new xref's /Prev points at.
func ExtractLastStartXRef(pdfBytes []byte) int {
	if len(pdfBytes) == 0 {
		return 0
	}
	if m := startXRef.FindSubmatch(pdfBytes); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			return n
		}
	}
	all := startXAny.FindAllSubmatch(pdfBytes, -1)
	if len(all) == 0 {
		return 0
	}
	last := all[len(all)-1]
	n, err := strconv.Atoi(string(last[1]))
	if err != nil {
		return 0
	}
	return n
}

// RebuildPDF performs an incremental update: every object in objMap whose
// body differs from (or is absent from) the original file is appended, a
// partial xref section covering only those object numbers is written, and
// the new trailer's /Prev points at the file's previous startxref. This is
// how a single-pass writer can add brand-new objects (a StructTreeRoot, a
// ParentTree, Figure StructElems) alongside edits to existing ones without
// rewriting the whole file.
func RebuildPDF(objMap ObjectMap, originalBytes []byte) ([]byte, error) {
	originalMap, err := BuildObjectMap(originalBytes)
	if err != nil {
		return nil, err
	}

	type objMeta struct {
		id, gen int
		key     string
	}
	var changed []objMeta
	maxID := 0

	for key, body := range objMap {
		id, gen, ok := ParseObjKey(key)
		if !ok {
			continue
		}
		if id > maxID {
			maxID = id
		}
		origBody, ok := originalMap[key]
		if !ok || !bytes.Equal(origBody, body) {
			changed = append(changed, objMeta{id: id, gen: gen, key: key})
		}
	}

	if len(changed) == 0 {
		return originalBytes, nil
	}

	sort.Slice(changed, func(i, j int) bool {
		if changed[i].id == changed[j].id {
			return changed[i].gen < changed[j].gen
		}
		return changed[i].id < changed[j].id
	})

	prevStartXRef := ExtractLastStartXRef(originalBytes)
	rootRef, ok := FindRootRef(originalBytes)
	if !ok {
		return nil, errors.New("pdfio: missing /Root")
	}
	trID := ExtractPrimaryTrailerID(originalBytes)

	var out bytes.Buffer
	out.Write(originalBytes)
	if len(originalBytes) > 0 {
		last := originalBytes[len(originalBytes)-1]
		if last != '\n' && last != '\r' {
			out.WriteByte('\n')
		}
	}

	type offsetEntry struct {
		offset, gen int
	}
	offsetByObject := make(map[int]offsetEntry, len(changed))

	for _, obj := range changed {
		offsetByObject[obj.id] = offsetEntry{offset: out.Len(), gen: obj.gen}
		body := objMap[obj.key]
		fmt.Fprintf(&out, "%d %d obj\n", obj.id, obj.gen)
		out.Write(body)
		switch {
		case bytes.HasSuffix(body, []byte("endobj")):
			out.WriteByte('\n')
		case bytes.HasSuffix(body, []byte("endobj\n")):
		default:
			if !bytes.HasSuffix(body, []byte("\n")) {
				out.WriteByte('\n')
			}
			out.WriteString("endobj\n")
		}
	}

	xrefStart := out.Len()
	out.WriteString("xref\n")

	ids := make([]int, 0, len(offsetByObject))
	for id := range offsetByObject {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	start := ids[0]
	block := []int{ids[0]}
	flush := func() {
		if len(block) == 0 {
			return
		}
		fmt.Fprintf(&out, "%d %d\n", start, len(block))
		for _, id := range block {
			e := offsetByObject[id]
			fmt.Fprintf(&out, "%010d %05d n \n", e.offset, e.gen)
		}
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1]+1 {
			block = append(block, ids[i])
			continue
		}
		flush()
		start = ids[i]
		block = []int{ids[i]}
	}
	flush()

	idPart := ""
	if trID != "" {
		idPart = " /ID " + trID
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %s R /Prev %d%s >>\nstartxref\n%d\n%%%%EOF\n",
		maxID+1, rootRef, prevStartXRef, idPart, xrefStart)

	return out.Bytes(), nil
}
