// Package app wires configuration into the QC engine's components. The
// HTTP server and the command-line tool share this wiring.
package app

import (
	"fmt"
	"log"

	"github.com/Sneha-Offi/qc-backend-engine/config"
	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
	"github.com/Sneha-Offi/qc-backend-engine/internal/infrastructure/cache"
	"github.com/Sneha-Offi/qc-backend-engine/internal/infrastructure/document"
	"github.com/Sneha-Offi/qc-backend-engine/internal/infrastructure/scraper"
	"github.com/Sneha-Offi/qc-backend-engine/internal/infrastructure/search"
	"github.com/Sneha-Offi/qc-backend-engine/internal/infrastructure/taxonomy"
	"github.com/Sneha-Offi/qc-backend-engine/internal/infrastructure/vision"
	"github.com/Sneha-Offi/qc-backend-engine/internal/usecase"
)

// maxCachedReports bounds the in-memory report cache
const maxCachedReports = 1000

// App holds the wired components
type App struct {
	Config       *config.Config
	Taxonomy     *domain.Taxonomy
	Classifier   usecase.CategoryClassifier
	Normalizer   *usecase.KeyNormalizer
	Scraper      *scraper.Scraper
	Search       domain.SearchClient
	VendorSearch *usecase.SearchFetcher
	VendorFiles  *usecase.VendorFileAnalyzer
	QC           *usecase.QCService

	cache *cache.MemoryCache
}

// New builds every component from cfg. Search and screenshot analysis are
// left out when their credentials are missing.
func New(cfg *config.Config) (*App, error) {
	debug := cfg.Server.Debug || cfg.Server.Environment == "development"

	tax, err := loadTaxonomy(cfg.Taxonomy.Path)
	if err != nil {
		return nil, err
	}
	log.Printf("Taxonomy: version %s, %d categories", tax.Version, len(tax.Categories))

	classifier, err := usecase.NewClassifier(cfg.Taxonomy.Strategy, tax, debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	normalizer := usecase.NewKeyNormalizer(debug)
	extractor := usecase.NewAttributeExtractor(debug)

	pageScraper := scraper.New(scraper.Config{
		Timeout:      cfg.Scraper.Timeout,
		MaxRetries:   cfg.Scraper.MaxRetries,
		RetryBackoff: cfg.Scraper.RetryBackoff,
		MaxImages:    cfg.Scraper.MaxImages,
		MaxRawText:   cfg.Scraper.MaxRawText,
		UserAgents:   cfg.Scraper.UserAgents,
	}, normalizer)
	pageScraper.SetDebug(debug)

	parser := document.NewParser(0)
	parser.SetDebug(debug)
	vendorFiles := usecase.NewVendorFileAnalyzer(parser, normalizer, debug)

	a := &App{
		Config:      cfg,
		Taxonomy:    tax,
		Classifier:  classifier,
		Normalizer:  normalizer,
		Scraper:     pageScraper,
		VendorFiles: vendorFiles,
	}

	if cfg.Search.Configured() {
		client := search.NewClient(search.Config{
			BaseURL:           cfg.Search.BaseURL,
			APIKey:            cfg.Search.APIKey,
			EngineID:          cfg.Search.EngineID,
			RequestsPerMinute: cfg.RateLimit.Search,
		})
		client.SetDebug(debug)
		a.Search = client
		a.VendorSearch = usecase.NewSearchFetcher(client, pageScraper, extractor, usecase.SearchFetcherConfig{
			NumResults:           cfg.Search.NumResults,
			MinSnippetAttributes: cfg.Search.MinSnippetAttributes,
			ResultScrapeLimit:    cfg.Search.ResultScrapeLimit,
			ResultScrapeTimeout:  cfg.Search.ResultScrapeTimeout,
			ExcludedDomains:      cfg.Search.ExcludedDomains,
			EnableDebugLogging:   debug,
		})
		log.Printf("Search API configured: %s", cfg.Search.BaseURL)
	} else {
		log.Printf("WARNING: Search API not configured - vendor search is disabled")
	}

	var visionClient domain.VisionClient
	if cfg.Vision.APIKey != "" {
		client := vision.NewClient(vision.Config{
			BaseURL:   cfg.Vision.BaseURL,
			APIKey:    cfg.Vision.APIKey,
			Model:     cfg.Vision.Model,
			MaxTokens: cfg.Vision.MaxTokens,
			Timeout:   cfg.Vision.Timeout,
		})
		client.SetDebug(debug)
		visionClient = client
		log.Printf("Vision API configured: %s (model: %s)", cfg.Vision.BaseURL, cfg.Vision.Model)
	} else {
		log.Printf("WARNING: Vision API not configured - screenshot mode will return limited data")
	}

	collector := usecase.NewSourceCollector(
		pageScraper,
		visionClient,
		vendorFiles,
		usecase.NewScreenshotNormalizer(normalizer, debug),
		a.VendorSearch,
		extractor,
		debug,
	)

	a.cache = cache.NewMemoryCache(0, cache.WithMaxEntries(maxCachedReports))
	a.QC = usecase.NewQCService(collector, classifier, a.cache, usecase.QCServiceConfig{
		ReportTTL:          cfg.Cache.TTL,
		EnableDebugLogging: debug,
	})

	return a, nil
}

// Close stops background work
func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

func loadTaxonomy(path string) (*domain.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default()
	}
	tax, err := taxonomy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy %s: %w", path, err)
	}
	return tax, nil
}
