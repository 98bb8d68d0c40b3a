package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Sneha-Offi/qc-backend-engine/config"
	"github.com/Sneha-Offi/qc-backend-engine/internal/app"
	httpDelivery "github.com/Sneha-Offi/qc-backend-engine/internal/delivery/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting QC Backend Engine v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s (report TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)

	// Initialize infrastructure and usecase layers
	engine, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	defer engine.Close()

	log.Printf("Classifier: %s, uploads: %d files x %d MB, rate limit: %d/min",
		cfg.Taxonomy.Strategy, cfg.Server.MaxFiles, cfg.Server.MaxUploadMB, cfg.RateLimit.PerIP)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(httpDelivery.HandlerConfig{
		QC:           engine.QC,
		Search:       engine.Search,
		VendorSearch: engine.VendorSearch,
		Scraper:      engine.Scraper,
		VendorFiles:  engine.VendorFiles,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
		MaxFiles:     cfg.Server.MaxFiles,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
