package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/inklutec/accesspdf/internal/config"
	"github.com/inklutec/accesspdf/internal/httpapi"
	"github.com/inklutec/accesspdf/internal/modelclient"
	"github.com/inklutec/accesspdf/internal/orchestrator"
	"github.com/inklutec/accesspdf/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.UploadsRoot, 0o755); err != nil {
		log.Fatalf("create uploads root: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.ResultsRoot, 0o755); err != nil {
		log.Fatalf("create results root: %v", err)
	}

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}

	client := modelclient.New(cfg.Model.BaseURL, cfg.Model.Name)
	o := orchestrator.New(s, client, cfg.Storage.ResultsRoot)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Recovery] panic recovered: %v", r)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	})
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}

	maxConcurrent := 16
	semaphore := make(chan struct{}, maxConcurrent)
	router.Use(func(c *gin.Context) {
		semaphore <- struct{}{}
		defer func() { <-semaphore }()
		c.Next()
	})

	srv := &httpapi.Server{
		Store:        s,
		Orchestrator: o,
		Auth:         httpapi.PassthroughAuthenticator{},
		UploadsRoot:  cfg.Storage.UploadsRoot,
		ResultsRoot:  cfg.Storage.ResultsRoot,
		MaxUploadMB:  cfg.Storage.MaxUploadMB,
	}
	limiter := httpapi.NewRateLimiter(
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		cfg.RateLimit.MaxAttempts,
	)
	srv.RegisterRoutes(router, limiter)

	httpSrv := &http.Server{
		Addr:         serveAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	log.Printf("accesspdf listening on %s", serveAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
