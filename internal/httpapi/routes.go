// Package httpapi exposes the orchestrator over a small set of Gin routes.
// Authentication and storage bookkeeping are collaborator contracts, not
// finished products — real deployments plug in their own Authenticator.
package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inklutec/accesspdf/internal/orchestrator"
	"github.com/inklutec/accesspdf/internal/store"
)

var logger = log.New(os.Stderr, "[httpapi] ", log.LstdFlags)

// Server wires the orchestrator and catalog onto a set of Gin routes.
type Server struct {
	Store         *store.Store
	Orchestrator  *orchestrator.Orchestrator
	Auth          Authenticator
	UploadsRoot   string
	ResultsRoot   string
	MaxUploadMB   int
	AllowedOrigin string
}

// RegisterRoutes groups every project endpoint behind CORS, the rate
// limiter and the authenticator.
func (s *Server) RegisterRoutes(router *gin.Engine, limiter *RateLimiter) {
	router.Use(CORSMiddleware(s.AllowedOrigin))

	api := router.Group("/api/projects")
	api.Use(limiter.Middleware())
	api.Use(authMiddleware(s.Auth))
	{
		api.POST("", s.handleUpload)
		api.POST("/:id/generate", s.handleGenerate)
		api.GET("/:id/status", s.handleStatus)
		api.POST("/:id/export", s.handleExport)
		api.DELETE("/:id", s.handleDelete)
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	ownerID := ownerFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keine Datei hochgeladen"})
		return
	}
	maxBytes := int64(s.MaxUploadMB) * 1024 * 1024
	if file.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Datei zu gross. Maximum: %d MB", s.MaxUploadMB)})
		return
	}

	ownerDir := filepath.Join(s.UploadsRoot, ownerID)
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Speicherfehler"})
		return
	}
	destName := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102_150405"), filepath.Base(file.Filename))
	destPath := filepath.Join(ownerDir, destName)
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Datei konnte nicht gespeichert werden"})
		return
	}

	p := &store.Project{OwnerID: ownerID, SourceFilename: file.Filename, SourcePath: destPath}
	if err := s.Store.CreateProject(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Projekt konnte nicht angelegt werden"})
		return
	}

	if err := s.Orchestrator.Extract(c.Request.Context(), p.ID); err != nil {
		logger.Printf("project %d: extraction failed: %v", p.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PDF-Verarbeitung fehlgeschlagen"})
		return
	}

	updated, _ := s.Store.GetProject(p.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "project_id": p.ID, "total_images": updated.TotalImages})
}

func (s *Server) handleGenerate(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}
	requestID := uuid.NewString()
	go func() {
		ctx := context.Background()
		if err := s.Orchestrator.Generate(ctx, id); err != nil {
			logger.Printf("[%s] project %d: generate failed: %v", requestID, id, err)
		}
	}()
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Alt-Text-Generierung gestartet"})
}

func (s *Server) handleStatus(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}
	p, err := s.Store.GetProject(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Projekt nicht gefunden"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           p.Status,
		"total_images":     p.TotalImages,
		"processed_images": p.ProcessedImages,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}
	p, err := s.Store.GetProject(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Projekt nicht gefunden"})
		return
	}
	outPath := filepath.Join(s.ResultsRoot, fmt.Sprintf("%d", id), "tagged_"+p.SourceFilename)
	if err := s.Orchestrator.Export(c.Request.Context(), id, outPath); err != nil {
		logger.Printf("project %d: export failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Export fehlgeschlagen: %v", err)})
		return
	}
	c.FileAttachment(outPath, p.SourceFilename)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}
	if err := s.Store.DeleteProject(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Löschen fehlgeschlagen"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func parseProjectID(c *gin.Context) (uint, bool) {
	var id uint
	if _, err := fmt.Sscanf(c.Param("id"), "%d", &id); err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ungültige Projekt-ID"})
		return 0, false
	}
	return id, true
}
