package accesspdf

import (
	"context"
	"fmt"

	"github.com/inklutec/accesspdf/internal/modelclient"
	"github.com/inklutec/accesspdf/internal/orchestrator"
	"github.com/inklutec/accesspdf/internal/store"
)

// Options configures a Document's storage and model backend.
type Options struct {
	DatabasePath string
	ResultsRoot  string
	ModelBaseURL string
	ModelName    string
}

// Document is the public facade over the ingest/generate/export pipeline.
type Document struct {
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
}

// NewDocument opens (or creates) the catalog database and wires an
// orchestrator against the given model backend.
func NewDocument(opts Options) (*Document, error) {
	s, err := store.Open(opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("accesspdf: open catalog: %w", err)
	}
	client := modelclient.New(opts.ModelBaseURL, opts.ModelName)
	o := orchestrator.New(s, client, opts.ResultsRoot)
	return &Document{store: s, orchestrator: o}, nil
}

// Ingest registers sourcePath as a new project owned by ownerID, extracting
// its raster images and accepted vector clusters into image descriptors.
func (d *Document) Ingest(ctx context.Context, ownerID, sourcePath string) (*store.Project, error) {
	p := &store.Project{OwnerID: ownerID, SourceFilename: sourcePath, SourcePath: sourcePath}
	if err := d.store.CreateProject(p); err != nil {
		return nil, fmt.Errorf("accesspdf: create project: %w", err)
	}
	if err := d.orchestrator.Extract(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("accesspdf: extract: %w", err)
	}
	return d.store.GetProject(p.ID)
}

// GenerateAltTexts describes every pending image of projectID through the
// configured model, persisting each result as it completes.
func (d *Document) GenerateAltTexts(ctx context.Context, projectID uint) error {
	return d.orchestrator.Generate(ctx, projectID)
}

// ExportTagged writes the tagged PDF for projectID's final alt-texts to outPath.
func (d *Document) ExportTagged(ctx context.Context, projectID uint, outPath string) error {
	return d.orchestrator.Export(ctx, projectID, outPath)
}

// Status returns a project's current state and progress counters.
func (d *Document) Status(projectID uint) (*store.Project, error) {
	return d.store.GetProject(projectID)
}
