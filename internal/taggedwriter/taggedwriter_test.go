package taggedwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/inklutec/accesspdf/internal/pdfio"
)

var singleImagePDF = []byte(`%PDF-1.7
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
<< /Length 26 >>
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

// binaryImagePDF's image XObject stream contains the literal byte pair ">>",
// as real compressed/binary image data routinely does.
var binaryImagePDF = []byte(`%PDF-1.7
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
<< /Length 26 >>
stream
q 1 0 0 1 0 0 cm /Im0 Do Q
endstream
endobj
5 0 obj
<< /Type /XObject /Subtype /Image /Width 10 /Height 10 /Filter /DCTDecode /Length 6 >>
stream
ab>>cd
endstream
endobj
trailer
<< /Size 6 /Root 1 0 R >>
startxref
0
%%EOF
`)

func writeSrc(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	return path
}

func TestWriteAddsStructureAndAltText(t *testing.T) {
	src := writeSrc(t, singleImagePDF)
	dst := filepath.Join(t.TempDir(), "out.pdf")

	if err := Write(src, dst, map[int]string{5: `A (chart) with data`}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	objMap, err := pdfio.BuildObjectMap(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	root, ok := pdfio.FindRootRef(out)
	if !ok {
		t.Fatalf("no root ref found")
	}
	if !bytes.Contains(objMap[root], []byte("/StructTreeRoot")) {
		t.Errorf("catalog missing /StructTreeRoot: %s", objMap[root])
	}
	if !bytes.Contains(objMap[root], []byte("/MarkInfo << /Marked true >>")) {
		t.Errorf("catalog missing /MarkInfo: %s", objMap[root])
	}

	if !bytes.Contains(objMap["5 0"], []byte(`/Alt (A \(chart\) with data)`)) {
		t.Errorf("image XObject missing expected /Alt, got: %s", objMap["5 0"])
	}

	found := false
	for key, body := range objMap {
		if key == "5 0" || key == root {
			continue
		}
		if bytes.Contains(body, []byte("/S /Figure")) && bytes.Contains(body, []byte(`/Alt (A \(chart\) with data)`)) {
			if got := pdfio.UnescapePDFString(extractAlt(body)); got != `A (chart) with data` {
				t.Errorf("Figure StructElem alt round-trip mismatch: got %q", got)
			}
			found = true
		}
	}
	if !found {
		t.Errorf("no Figure StructElem with matching /Alt found")
	}

	if !bytes.Contains(objMap["4 0"], []byte("/Figure")) || !bytes.Contains(objMap["4 0"], []byte("BDC")) {
		t.Errorf("content stream not wrapped with BDC: %s", objMap["4 0"])
	}
	if !bytes.Contains(objMap["4 0"], []byte("EMC")) {
		t.Errorf("content stream missing EMC: %s", objMap["4 0"])
	}
}

func TestWriteDekorativSentinelExportsEmptyAlt(t *testing.T) {
	src := writeSrc(t, singleImagePDF)
	dst := filepath.Join(t.TempDir(), "out.pdf")

	if err := Write(src, dst, map[int]string{5: "dekorativ"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, _ := os.ReadFile(dst)
	objMap, err := pdfio.BuildObjectMap(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if !bytes.Contains(objMap["5 0"], []byte("/Alt ()")) {
		t.Errorf("expected empty /Alt for decorative sentinel, got: %s", objMap["5 0"])
	}
}

func TestWriteSkipsImageWithNoAltText(t *testing.T) {
	src := writeSrc(t, singleImagePDF)
	dst := filepath.Join(t.TempDir(), "out.pdf")

	if err := Write(src, dst, map[int]string{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, _ := os.ReadFile(dst)
	objMap, err := pdfio.BuildObjectMap(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	root, _ := pdfio.FindRootRef(out)
	if bytes.Contains(objMap[root], []byte("/StructTreeRoot")) {
		t.Errorf("expected no structure tree when no image has alt-text")
	}
}

func TestWriteIsReExportable(t *testing.T) {
	src := writeSrc(t, singleImagePDF)
	dst1 := filepath.Join(t.TempDir(), "out1.pdf")
	dst2 := filepath.Join(t.TempDir(), "out2.pdf")

	if err := Write(src, dst1, map[int]string{5: "first pass"}); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if err := Write(dst1, dst2, map[int]string{5: "second pass"}); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	out, err := os.ReadFile(dst2)
	if err != nil {
		t.Fatalf("read dst2: %v", err)
	}
	objMap, err := pdfio.BuildObjectMap(out)
	if err != nil {
		t.Fatalf("reopen dst2 failed: %v", err)
	}
	if !bytes.Contains(objMap["5 0"], []byte("second pass")) {
		t.Errorf("expected re-export to carry the latest alt-text, got: %s", objMap["5 0"])
	}
	if bdcCount := bytes.Count(objMap["4 0"], []byte("BDC")); bdcCount != 1 {
		t.Errorf("expected content stream to carry exactly one BDC marker after re-export, got %d", bdcCount)
	}
}

func TestWriteDoesNotCorruptStreamContainingClosingDictBytes(t *testing.T) {
	src := writeSrc(t, binaryImagePDF)
	dst := filepath.Join(t.TempDir(), "out.pdf")

	if err := Write(src, dst, map[int]string{5: "photo of a cat"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	objMap, err := pdfio.BuildObjectMap(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	if !bytes.Contains(objMap["5 0"], []byte(`/Alt (photo of a cat)`)) {
		t.Errorf("expected /Alt added to image dict, got: %s", objMap["5 0"])
	}
	raw, ok := pdfio.ExtractStreamBody(objMap["5 0"])
	if !ok {
		t.Fatalf("image XObject lost its stream body")
	}
	if !bytes.Equal(raw, []byte("ab>>cd")) {
		t.Errorf("image stream data corrupted by /Alt insertion, got: %q", raw)
	}
}

func extractAlt(body []byte) string {
	idx := bytes.Index(body, []byte("/Alt ("))
	if idx < 0 {
		return ""
	}
	rest := body[idx+len("/Alt ("):]
	depth := 1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return string(rest[:i])
			}
		}
	}
	return string(rest)
}
