package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/inklutec/accesspdf/internal/config"
	"github.com/inklutec/accesspdf/pkg/accesspdf"
)

var processOwner string

var processCmd = &cobra.Command{
	Use:   "process SOURCE.pdf",
	Short: "Ingest a PDF and generate alt-text for its images",
	Args:  cobra.ExactArgs(1),
	Run:   runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processOwner, "owner", "default", "owner id to attribute the project to")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) {
	sourcePath := args[0]

	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	doc, err := accesspdf.NewDocument(accesspdf.Options{
		DatabasePath: cfg.Database.Path,
		ResultsRoot:  cfg.Storage.ResultsRoot,
		ModelBaseURL: cfg.Model.BaseURL,
		ModelName:    cfg.Model.Name,
	})
	if err != nil {
		log.Fatalf("open document: %v", err)
	}

	ctx := context.Background()
	project, err := doc.Ingest(ctx, processOwner, sourcePath)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Printf("project %d: extracted %d images\n", project.ID, project.TotalImages)

	if err := doc.GenerateAltTexts(ctx, project.ID); err != nil {
		log.Fatalf("generate alt-texts: %v", err)
	}

	final, err := doc.Status(project.ID)
	if err != nil {
		log.Fatalf("status: %v", err)
	}
	fmt.Printf("project %d: %s (%d/%d images described)\n", final.ID, final.Status, final.ProcessedImages, final.TotalImages)
}
