package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inklutec/accesspdf/internal/config"
	"github.com/inklutec/accesspdf/pkg/accesspdf"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export PROJECT_ID",
	Short: "Write the tagged PDF for a processed project",
	Args:  cobra.ExactArgs(1),
	Run:   runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path for the tagged PDF (required)")
	exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	projectID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		log.Fatalf("invalid project id %q: %v", args[0], err)
	}

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

	if err := doc.ExportTagged(context.Background(), uint(projectID), exportOut); err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("wrote %s\n", exportOut)
}
