package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"cv-intelligence/internal/config"
	"cv-intelligence/internal/handlers"
	"cv-intelligence/internal/repositories"
	"cv-intelligence/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	batchRepo := repositories.NewBatchRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	extractor := services.NewTextExtractor()
	parser := services.NewResumeParser()
	scorer := services.NewScorer()
	aggregator := services.NewResultAggregator()
	ingestionValidator := services.NewIngestionValidator(cfg.Storage.MaxFileSize, cfg.Storage.MaxResumeFiles)
	log.Println("✅ Services initialized successfully")

	// The LLM and vector-search backends are optional. Without them the
	// service runs the deterministic pipeline only.
	var geminiService services.GeminiService
	if cfg.Gemini.APIKey != "" {
		geminiService, err = services.NewGeminiService(cfg.Gemini.APIKey)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
		}
		log.Println("✅ Gemini AI initialized successfully")
	} else {
		log.Println("⚠️  GEMINI_API_KEY not set, running without LLM summaries")
	}

	var searchService services.CandidateSearchService
	if cfg.SearchEnabled() {
		searchService, err = services.NewCandidateSearchService(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			geminiService,
		)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := searchService.InitCollection(); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}
		log.Println("✅ Qdrant initialized successfully")
	} else {
		log.Println("⚠️  Semantic search disabled (requires QDRANT_URL and GEMINI_API_KEY)")
	}

	analysisEngine := services.NewAnalysisEngine(extractor, parser, scorer, geminiService)
	processor := services.NewBatchProcessor(
		batchRepo,
		candidateRepo,
		ingestionValidator,
		analysisEngine,
		aggregator,
		scorer,
		storageService,
		searchService,
		cfg.Analyzer.Concurrency,
		cfg.Analyzer.FileTimeout,
	)
	log.Println("✅ Batch processor initialized")

	// Initialize handlers
	batchHandler := handlers.NewBatchHandler(processor)
	processHandler := handlers.NewProcessHandler(processor)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CV Intelligence API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * (cfg.Storage.MaxResumeFiles + 1),
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Routes
	api := app.Group("/cv-intelligence", handlers.RequireUser())
	api.Post("/", batchHandler.CreateBatch)
	api.Get("/batches", batchHandler.ListBatches)
	api.Get("/batch/:id", batchHandler.GetBatch)
	api.Delete("/batch/:id", batchHandler.DeleteBatch)
	api.Post("/batch/:id/process", processHandler.ProcessBatch)
	api.Put("/batch/:id/candidate/:candidateId/interview", processHandler.ScheduleInterview)
	api.Post("/batch/:id/search", processHandler.Search)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
