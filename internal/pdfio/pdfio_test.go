package pdfio

import (
	"bytes"
	"testing"
)

var minimalPDF = []byte(`%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im0 5 0 R >> >> /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 21 >>
stream
q 1 0 0 1 0 0 cm /Im0 Do Q
endstream
endobj
5 0 obj
<< /Type /XObject /Subtype /Image /Width 10 /Height 10 /Length 3 >>
stream
abc
endstream
endobj
trailer
<< /Size 6 /Root 1 0 R >>
startxref
0
%%EOF
`)

func TestBuildObjectMapAndWalkPages(t *testing.T) {
	objMap, err := BuildObjectMap(minimalPDF)
	if err != nil {
		t.Fatalf("BuildObjectMap failed: %v", err)
	}
	if len(objMap) != 5 {
		t.Fatalf("expected 5 objects, got %d", len(objMap))
	}

	var pages []string
	if err := WalkPages(objMap, minimalPDF, func(key string, num int) {
		pages = append(pages, key)
	}); err != nil {
		t.Fatalf("WalkPages failed: %v", err)
	}
	if len(pages) != 1 || pages[0] != "3 0" {
		t.Fatalf("expected single page key '3 0', got %v", pages)
	}
}

func TestExtractMediaBox(t *testing.T) {
	objMap, _ := BuildObjectMap(minimalPDF)
	box := ExtractMediaBox(objMap["3 0"], objMap)
	if box != [4]float64{0, 0, 612, 792} {
		t.Errorf("unexpected MediaBox: %v", box)
	}
}

func TestXObjectRefs(t *testing.T) {
	objMap, _ := BuildObjectMap(minimalPDF)
	res := ResourcesBody(objMap["3 0"], objMap)
	refs := XObjectRefs(res, objMap)
	if refs["Im0"] != "5 0" {
		t.Errorf("expected Im0 -> 5 0, got %v", refs)
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	in := `A (chart) with \backslash`
	esc := EscapePDFString(in)
	if esc == in {
		t.Fatalf("expected escaping to change the string")
	}
	if got := UnescapePDFString(esc); got != in {
		t.Errorf("round trip mismatch: got %q want %q", got, in)
	}
}

func TestRebuildPDFAppendsNewObject(t *testing.T) {
	objMap, err := BuildObjectMap(minimalPDF)
	if err != nil {
		t.Fatalf("BuildObjectMap failed: %v", err)
	}
	objMap["6 0"] = []byte(" << /Type /StructTreeRoot /K 7 0 R >>\n")

	out, err := RebuildPDF(objMap, minimalPDF)
	if err != nil {
		t.Fatalf("RebuildPDF failed: %v", err)
	}
	if !bytes.Contains(out, []byte("6 0 obj")) {
		t.Errorf("expected new object 6 0 to be appended")
	}
	if !bytes.Contains(out, []byte("/Prev 0")) {
		t.Errorf("expected /Prev to reference the previous startxref")
	}
	if bytes.Count(out, []byte("startxref")) < 2 {
		t.Errorf("expected an additional startxref section to be appended")
	}
}
