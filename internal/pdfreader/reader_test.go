package pdfreader

import (
	"os"
	"path/filepath"
	"testing"
)

// minimalVectorPDF draws a rectangle-heavy "chart" (>= 5 path ops) inside a
// compact region with no embedded raster image.
var minimalVectorPDF = []byte(`%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 600 800] /Resources << >> /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 200 >>
stream
100 100 50 50 re f
160 100 50 60 re f
220 100 50 70 re f
280 100 50 40 re f
340 100 50 90 re f
endstream
endobj
trailer
<< /Size 5 /Root 1 0 R >>
startxref
0
%%EOF
`)

// rasterPDF places one DCTDecode (pass-through) image XObject on a page via
// a "q ... /Im0 Do Q" content stream.
var rasterPDF = []byte(`%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 600 800] /Resources << /XObject << /Im0 5 0 R >> >> /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 26 >>
stream
q 200 0 0 100 50 50 cm /Im0 Do Q
endstream
endobj
5 0 obj
<< /Type /XObject /Subtype /Image /Width 20 /Height 10 /Filter /DCTDecode /Length 3 >>
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

func writeTempPDF(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp pdf: %v", err)
	}
	return path
}

func TestOpenAndPageCount(t *testing.T) {
	path := writeTempPDF(t, minimalVectorPDF)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if r.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", r.PageCount())
	}
}

func TestPageVectorItems(t *testing.T) {
	path := writeTempPDF(t, minimalVectorPDF)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	page, err := r.Page(1)
	if err != nil {
		t.Fatalf("Page(1) failed: %v", err)
	}
	if page.Rect.Width() != 600 || page.Rect.Height() != 800 {
		t.Errorf("unexpected page rect: %v", page.Rect)
	}
	if len(page.Vectors) != 5 {
		t.Fatalf("expected 5 vector items (one per re/f pair), got %d", len(page.Vectors))
	}
	for _, v := range page.Vectors {
		if v.ItemCount != 1 {
			t.Errorf("expected itemCount 1 per rectangle, got %d", v.ItemCount)
		}
	}
}

func TestPageDiscoversRasterImage(t *testing.T) {
	path := writeTempPDF(t, rasterPDF)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	page, err := r.Page(1)
	if err != nil {
		t.Fatalf("Page(1) failed: %v", err)
	}
	if len(page.Images) != 1 {
		t.Fatalf("expected 1 raster image, got %d", len(page.Images))
	}
	img := page.Images[0]
	if img.Xref != 5 {
		t.Errorf("expected xref 5, got %d", img.Xref)
	}
	if img.Ext != "jpeg" {
		t.Errorf("expected ext jpeg, got %q", img.Ext)
	}
	if len(img.Rects) != 1 {
		t.Fatalf("expected 1 placement rect, got %d", len(img.Rects))
	}
	if img.Rects[0].Width() != 200 || img.Rects[0].Height() != 100 {
		t.Errorf("unexpected placement rect: %v", img.Rects[0])
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := writeTempPDF(t, []byte("not a pdf at all"))
	if _, err := Open(path); err == nil {
		t.Fatalf("expected an error opening a non-PDF file")
	}
}
