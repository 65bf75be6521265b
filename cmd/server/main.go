package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"medibill/internal/config"
	"medibill/internal/fetcher"
	"medibill/internal/handler"
	"medibill/internal/imaging"
	"medibill/internal/parser"
	"medibill/internal/parser/gemini"
	"medibill/internal/parser/openai"
	"medibill/internal/port"
	"medibill/internal/reconcile"
	"medibill/internal/router"
	"medibill/internal/scanner"
	"medibill/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registerProviders()

	extractor, err := buildExtractor(&cfg.Parser)
	if err != nil {
		return fmt.Errorf("failed to build extractor: %w", err)
	}

	// Initialize the pipeline
	docFetcher := fetcher.NewHTTPFetcher(&cfg.Fetcher)
	preparer := imaging.NewPreparer(&cfg.Imaging)
	fraudScanner := scanner.NewHeuristicScanner()
	reconciler := reconcile.NewReconciler(reconcile.OptionsFromConfig(&cfg.Reconcile))

	extractionSvc := service.NewExtractionService(
		docFetcher, preparer, fraudScanner, extractor, reconciler,
		time.Duration(cfg.Parser.Primary.TimeoutSecs)*time.Second,
	)

	// Initialize handlers
	extractH := handler.NewExtractHandler(extractionSvc)
	healthH := handler.NewHealthHandler()

	// Setup router
	r := router.Setup(extractH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func registerProviders() {
	parser.RegisterProvider("gemini", func(cfg *config.ParserProviderConfig) (port.BillExtractor, error) {
		return gemini.NewExtractor(cfg), nil
	})
	parser.RegisterProvider("openai", func(cfg *config.ParserProviderConfig) (port.BillExtractor, error) {
		return openai.NewExtractor(cfg), nil
	})
}

// buildExtractor creates the primary extractor, wrapped in a fallback chain
// when a secondary provider is configured.
func buildExtractor(cfg *config.ParserConfig) (port.BillExtractor, error) {
	primary, err := parser.NewExtractor(&cfg.Primary)
	if err != nil {
		return nil, err
	}

	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}

	secondary, err := parser.NewExtractor(secondaryCfg)
	if err != nil {
		return nil, err
	}

	log.Printf("main: extraction fallback chain: %s -> %s", cfg.Primary.Provider, secondaryCfg.Provider)
	return parser.NewFallbackExtractor(
		[]port.BillExtractor{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}
