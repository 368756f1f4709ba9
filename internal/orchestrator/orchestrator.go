// Package orchestrator drives a project through its lifecycle — uploaded,
// extracting, extracted, processing, done or error — wiring the reader,
// vector clustering, materializer, model client, reply parser and tagged
// writer together.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/inklutec/accesspdf/internal/altparser"
	"github.com/inklutec/accesspdf/internal/geom"
	"github.com/inklutec/accesspdf/internal/materializer"
	"github.com/inklutec/accesspdf/internal/modelclient"
	"github.com/inklutec/accesspdf/internal/pdfreader"
	"github.com/inklutec/accesspdf/internal/store"
	"github.com/inklutec/accesspdf/internal/taggedwriter"
	"github.com/inklutec/accesspdf/internal/vectorcluster"
)

var logger = log.New(os.Stderr, "[orchestrator] ", log.LstdFlags)

// Orchestrator coordinates extraction, generation and export for one
// project at a time; Store is the only shared mutable state.
type Orchestrator struct {
	Store       *store.Store
	Model       *modelclient.Client
	ResultsRoot string
}

// New wires an Orchestrator from its collaborators.
func New(s *store.Store, model *modelclient.Client, resultsRoot string) *Orchestrator {
	return &Orchestrator{Store: s, Model: model, ResultsRoot: resultsRoot}
}

// Extract reads the project's source PDF, clusters its vector drawings,
// materializes every raster image and accepted cluster, and persists the
// resulting descriptors. Any failure here is terminal for the project.
func (o *Orchestrator) Extract(ctx context.Context, projectID uint) error {
	p, err := o.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	if err := o.Store.SetProjectStatus(projectID, store.StatusExtracting); err != nil {
		return err
	}

	descriptors, err := o.extractDescriptors(p)
	if err != nil {
		if setErr := o.Store.SetProjectStatus(projectID, store.StatusError); setErr != nil {
			logger.Printf("project %d: failed to mark error status: %v", projectID, setErr)
		}
		return fmt.Errorf("orchestrator: extract project %d: %w", projectID, err)
	}

	if err := o.Store.CreateDescriptors(projectID, descriptors); err != nil {
		if setErr := o.Store.SetProjectStatus(projectID, store.StatusError); setErr != nil {
			logger.Printf("project %d: failed to mark error status: %v", projectID, setErr)
		}
		return fmt.Errorf("orchestrator: persist descriptors for project %d: %w", projectID, err)
	}
	return nil
}

func (o *Orchestrator) extractDescriptors(p *store.Project) ([]*store.ImageDescriptor, error) {
	reader, err := pdfreader.Open(p.SourcePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	outDir := filepath.Join(o.ResultsRoot, fmt.Sprintf("%d", p.ID))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("make results dir: %w", err)
	}
	mat := materializer.New(outDir)

	doc, err := fitz.New(p.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("open for rasterization: %w", err)
	}
	defer doc.Close()

	var descriptors []*store.ImageDescriptor
	for _, page := range reader.Pages() {
		idx := 1
		rasterRects := rasterPlacements(page)

		for _, img := range page.Images {
			desc, err := mat.MaterializeRaster(img, page.Number, idx)
			if err != nil {
				logger.Printf("project %d page %d: raster materialize failed: %v", p.ID, page.Number, err)
				continue
			}
			if desc == nil {
				continue
			}
			desc.ContextText = truncateContext(page.Text)
			descriptors = append(descriptors, desc)
			idx++
		}

		items := make([]vectorcluster.Item, 0, len(page.Vectors))
		for _, v := range page.Vectors {
			items = append(items, vectorcluster.Item{Rect: v.Rect, ItemCount: v.ItemCount})
		}
		clusters := vectorcluster.Detect(page.Rect, items)
		for _, cluster := range clusters {
			if vectorcluster.OverlapsRaster(cluster, rasterRects) {
				continue
			}
			desc, err := mat.MaterializeVectorCluster(doc, page.Number, page.Rect, cluster, idx)
			if err != nil {
				logger.Printf("project %d page %d: vector materialize failed: %v", p.ID, page.Number, err)
				continue
			}
			desc.ContextText = truncateContext(page.Text)
			descriptors = append(descriptors, desc)
			idx++
		}
	}
	return descriptors, nil
}

func rasterPlacements(page *pdfreader.Page) []geom.Rect {
	var rects []geom.Rect
	for _, img := range page.Images {
		rects = append(rects, img.Rects...)
	}
	return rects
}

func truncateContext(text string) string {
	const maxContext = 500
	r := []rune(text)
	if len(r) <= maxContext {
		return text
	}
	return string(r[:maxContext])
}

// Generate describes every pending descriptor in (page, index) order,
// persisting each result atomically before moving to the next image.
// Cancelling ctx aborts at the next image boundary: the project status stays
// "processing" so a later call resumes from the pending rows.
func (o *Orchestrator) Generate(ctx context.Context, projectID uint) error {
	if err := o.Store.SetProjectStatus(projectID, store.StatusProcessing); err != nil {
		return err
	}

	pending, err := o.Store.PendingDescriptors(projectID)
	if err != nil {
		return err
	}

	for _, d := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec := o.describeOne(ctx, d)
		if err := o.Store.UpdateImageResult(d.ID, projectID, rec.Bildtyp, rec.AltText, rec.RawResponse, store.Konfidenz(rec.Konfidenz), store.ImageDone); err != nil {
			return fmt.Errorf("orchestrator: persist result for image %d: %w", d.ID, err)
		}
	}

	remaining, err := o.Store.PendingDescriptors(projectID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return o.Store.SetProjectStatus(projectID, store.StatusDone)
	}
	return nil
}

// describeOne invokes the model and parses its reply; model failures never
// fail the project — they attach a "fehler" record and the pipeline
// continues.
func (o *Orchestrator) describeOne(ctx context.Context, d store.ImageDescriptor) altparser.Record {
	reply, err := o.Model.Generate(ctx, d.ImagePath, d.ContextText)
	if err != nil {
		logger.Printf("image %d: model call failed: %v", d.ID, err)
		return altparser.Record{
			Bildtyp: "fehler",
			AltText: fmt.Sprintf("Beschreibung konnte nicht generiert werden: %v", err),
			Konfidenz: "niedrig",
		}
	}
	return altparser.Parse(reply.Response, reply.Thinking)
}

// Export builds the tagged PDF for a project's final alt-texts and writes it
// to outPath. A writer failure is reported to the caller and leaves the
// catalog untouched.
func (o *Orchestrator) Export(ctx context.Context, projectID uint, outPath string) error {
	p, err := o.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	descriptors, err := o.Store.AllDescriptors(projectID)
	if err != nil {
		return err
	}

	altTexts := make(map[int]string, len(descriptors))
	for _, d := range descriptors {
		altTexts[d.Xref] = d.FinalAltText()
	}

	if err := taggedwriter.Write(p.SourcePath, outPath, altTexts); err != nil {
		return fmt.Errorf("orchestrator: export project %d: %w", projectID, err)
	}
	return nil
}
