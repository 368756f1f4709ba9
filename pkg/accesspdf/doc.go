// Package accesspdf provides a Go library for generating accessible,
// tagged alt-text for the images inside a PDF.
//
// This package can be imported into your Go application to extract a PDF's
// images, describe them through a vision model, and export a tagged PDF
// carrying the results as /Alt entries and a minimal structure tree.
//
// # Quick Start
//
//	import "github.com/inklutec/accesspdf/pkg/accesspdf"
//
//	doc, err := accesspdf.NewDocument(accesspdf.Options{
//	    DatabasePath: "catalog.db",
//	    ResultsRoot:  "results",
//	    ModelBaseURL: "http://localhost:11434",
//	    ModelName:    "llava",
//	})
//
//	project, err := doc.Ingest(ctx, "owner-1", "report.pdf")
//	err = doc.GenerateAltTexts(ctx, project.ID)
//	err = doc.ExportTagged(ctx, project.ID, "report.tagged.pdf")
//
// # Features
//
//   - [Document.Ingest] - extract a PDF's raster images and vector clusters
//   - [Document.GenerateAltTexts] - describe every pending image through the model
//   - [Document.ExportTagged] - write alt-text as a tagged, structured PDF
package accesspdf
