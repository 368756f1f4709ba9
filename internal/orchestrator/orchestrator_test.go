package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/inklutec/accesspdf/internal/modelclient"
	"github.com/inklutec/accesspdf/internal/store"
)

var testPDF = []byte(`%PDF-1.7
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

func newTestOrchestrator(t *testing.T, modelURL string) (*Orchestrator, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	client := modelclient.New(modelURL, "llava")
	return New(s, client, t.TempDir()), s
}

func TestGenerateProcessesPendingDescriptorsAndMarksDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": `{"bildtyp":"diagramm","alt_text":"Ein Balkendiagramm mit steigendem Trend.","ist_dekorativ":false,"konfidenz":"hoch"}`})
	}))
	defer srv.Close()

	o, s := newTestOrchestrator(t, srv.URL)
	p := &store.Project{OwnerID: "u1", SourceFilename: "a.pdf", SourcePath: filepath.Join(t.TempDir(), "a.pdf")}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	imgPath := filepath.Join(t.TempDir(), "p1_img1.png")
	os.WriteFile(imgPath, []byte{0x89, 'P', 'N', 'G'}, 0o644)
	if err := s.CreateDescriptors(p.ID, []*store.ImageDescriptor{
		{PageNumber: 1, ImageIndex: 1, ImagePath: imgPath, Xref: 5, ContextText: "some page text"},
	}); err != nil {
		t.Fatalf("CreateDescriptors failed: %v", err)
	}

	if err := o.Generate(context.Background(), p.ID); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Status != store.StatusDone {
		t.Errorf("expected status=done, got %s", got.Status)
	}
	if got.ProcessedImages != 1 {
		t.Errorf("expected processed_images=1, got %d", got.ProcessedImages)
	}

	all, err := s.AllDescriptors(p.ID)
	if err != nil {
		t.Fatalf("AllDescriptors failed: %v", err)
	}
	if all[0].ImageType != "diagramm" || all[0].Konfidenz != store.KonfidenzHoch {
		t.Errorf("unexpected descriptor after generate: %+v", all[0])
	}
}

func TestGenerateRecordsModelFailureWithoutFailingProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o, s := newTestOrchestrator(t, srv.URL)
	p := &store.Project{OwnerID: "u1", SourceFilename: "a.pdf", SourcePath: filepath.Join(t.TempDir(), "a.pdf")}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	imgPath := filepath.Join(t.TempDir(), "p1_img1.png")
	os.WriteFile(imgPath, []byte{0x89, 'P', 'N', 'G'}, 0o644)
	if err := s.CreateDescriptors(p.ID, []*store.ImageDescriptor{
		{PageNumber: 1, ImageIndex: 1, ImagePath: imgPath, Xref: 5},
	}); err != nil {
		t.Fatalf("CreateDescriptors failed: %v", err)
	}

	if err := o.Generate(context.Background(), p.ID); err != nil {
		t.Fatalf("Generate should not fail the project on model error: %v", err)
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Status != store.StatusDone {
		t.Errorf("expected status=done even after a model failure, got %s", got.Status)
	}

	all, err := s.AllDescriptors(p.ID)
	if err != nil {
		t.Fatalf("AllDescriptors failed: %v", err)
	}
	if all[0].ImageType != "fehler" {
		t.Errorf("expected bildtyp=fehler after model failure, got %q", all[0].ImageType)
	}
}

func TestExportWritesTaggedPDF(t *testing.T) {
	o, s := newTestOrchestrator(t, "http://unused.invalid")
	srcPath := filepath.Join(t.TempDir(), "a.pdf")
	if err := os.WriteFile(srcPath, testPDF, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	p := &store.Project{OwnerID: "u1", SourceFilename: "a.pdf", SourcePath: srcPath}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if err := s.CreateDescriptors(p.ID, []*store.ImageDescriptor{
		{PageNumber: 1, ImageIndex: 1, ImagePath: "p1_img1.png", Xref: 5},
	}); err != nil {
		t.Fatalf("CreateDescriptors failed: %v", err)
	}
	all, _ := s.AllDescriptors(p.ID)
	edited := "Ein Testbild."
	if err := s.SetAltTextEdited(all[0].ID, edited); err != nil {
		t.Fatalf("SetAltTextEdited failed: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "out.pdf")
	if err := o.Export(context.Background(), p.ID, outPath); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read exported pdf: %v", err)
	}
	if !bytes.Contains(out, []byte("StructTreeRoot")) {
		t.Errorf("expected exported PDF to contain a structure tree")
	}
	if !bytes.Contains(out, []byte(edited)) {
		t.Errorf("expected exported PDF to carry the edited alt-text")
	}
}
