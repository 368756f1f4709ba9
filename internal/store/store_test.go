package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestCreateDescriptorsSetsTotalImagesAndStatus(t *testing.T) {
	s := openTestStore(t)
	p := &Project{OwnerID: "u1", SourceFilename: "a.pdf", SourcePath: "/tmp/a.pdf"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	descriptors := []*ImageDescriptor{
		{PageNumber: 1, ImageIndex: 1, ImagePath: "p1_img1.png", Xref: 5},
		{PageNumber: 1, ImageIndex: 2, ImagePath: "p1_vec1.png", Xref: 900000},
	}
	if err := s.CreateDescriptors(p.ID, descriptors); err != nil {
		t.Fatalf("CreateDescriptors failed: %v", err)
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.TotalImages != 2 {
		t.Errorf("expected total_images=2, got %d", got.TotalImages)
	}
	if got.Status != StatusExtracted {
		t.Errorf("expected status=extracted, got %s", got.Status)
	}

	pending, err := s.PendingDescriptors(p.ID)
	if err != nil {
		t.Fatalf("PendingDescriptors failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending descriptors, got %d", len(pending))
	}
}

func TestUpdateImageResultIncrementsProcessedImages(t *testing.T) {
	s := openTestStore(t)
	p := &Project{OwnerID: "u1", SourceFilename: "a.pdf", SourcePath: "/tmp/a.pdf"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	descriptors := []*ImageDescriptor{{PageNumber: 1, ImageIndex: 1, ImagePath: "p1_img1.png", Xref: 5}}
	if err := s.CreateDescriptors(p.ID, descriptors); err != nil {
		t.Fatalf("CreateDescriptors failed: %v", err)
	}
	pending, err := s.PendingDescriptors(p.ID)
	if err != nil || len(pending) != 1 {
		t.Fatalf("PendingDescriptors failed: %v (%d)", err, len(pending))
	}

	if err := s.UpdateImageResult(pending[0].ID, p.ID, "diagramm", "Ein Balkendiagramm.", `{"bildtyp":"diagramm"}`, KonfidenzHoch, ImageDone); err != nil {
		t.Fatalf("UpdateImageResult failed: %v", err)
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.ProcessedImages != 1 {
		t.Errorf("expected processed_images=1, got %d", got.ProcessedImages)
	}

	remaining, err := s.PendingDescriptors(p.ID)
	if err != nil {
		t.Fatalf("PendingDescriptors failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected 0 pending descriptors after update, got %d", len(remaining))
	}
}

func TestFinalAltTextPrefersEditedAndNormalizesDecorativeSentinel(t *testing.T) {
	d := ImageDescriptor{AltText: "Ein Diagramm."}
	if got := d.FinalAltText(); got != "Ein Diagramm." {
		t.Errorf("expected model text, got %q", got)
	}

	edited := "dekorativ"
	d.AltTextEdited = &edited
	if got := d.FinalAltText(); got != "" {
		t.Errorf("expected decorative sentinel to normalize to empty, got %q", got)
	}

	override := "A manually written description."
	d.AltTextEdited = &override
	if got := d.FinalAltText(); got != override {
		t.Errorf("expected edited override, got %q", got)
	}
}
