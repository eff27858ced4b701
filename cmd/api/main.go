package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/analysis"
	"github.com/jeovahfialho/sales-analyzer/internal/api"
	"github.com/jeovahfialho/sales-analyzer/internal/config"
	"github.com/jeovahfialho/sales-analyzer/internal/etl"
	"github.com/jeovahfialho/sales-analyzer/internal/ingestion"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/csvfile"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/postgres"
	pkglogger "github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

// @title Sales Analyzer API
// @version 1.0
// @description API de métricas, estatísticas e exportação de vendas
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
func main() {
	cfg := config.Load()

	if err := pkglogger.InitWithFormat(cfg.LogLevel, cfg.LogFormat, cfg.Environment == "development"); err != nil {
		log.Fatal("Erro ao inicializar logger:", err)
	}
	defer pkglogger.Close()

	parser := ingestion.NewParser(cfg.BatchSize, cfg.Workers)

	var (
		db               *postgres.DB
		source           service.Source
		ingestionService *service.IngestionService
	)

	if cfg.UsePostgres() {
		var err error
		db, err = connectPostgres(cfg)
		if err != nil {
			log.Fatal("Erro ao conectar PostgreSQL:", err)
		}
		defer db.Close()

		source = postgres.NewSalesRepository(db.Pool())
		bulk := ingestion.NewBulkLoader(db.Pool(), cfg.BatchSize)
		ingestionService = service.NewIngestionService(parser, bulk, cfg.Workers)
	} else {
		source = csvfile.NewSource(cfg.CSVPath, parser)
		pkglogger.Info("lendo vendas de arquivo", zap.String("path", cfg.CSVPath))
	}

	redisCache := connectRedis(cfg)
	var (
		jobs     service.JobStore
		jobStore *cache.JobStore
	)
	if redisCache != nil {
		defer redisCache.Close()
		jobStore = cache.NewJobStore(redisCache)
		jobs = jobStore
	}

	// Services
	loader := service.NewLoader(source, cache.NewTableCache(), cfg.SalesCacheTTL)
	salesService := service.NewSalesService(loader)
	statsService := service.NewStatsService(loader, analysis.NewModelHolder())
	chartService := service.NewChartService(loader)
	pipeline := etl.NewPipeline(source, cfg.GoldParquet, cfg.GoldCSV)
	etlService := service.NewETLService(pipeline, jobs)

	// Handler
	handler := api.NewHandler(api.Dependencies{
		DB:              db,
		Redis:           redisCache,
		Jobs:            jobStore,
		Sales:           salesService,
		Stats:           statsService,
		Charts:          chartService,
		ETL:             etlService,
		Ingestion:       ingestionService,
		PowerBIEmbedURL: cfg.PowerBIEmbedURL,
	})

	// Fiber app
	app := fiber.New(fiber.Config{
		Prefork:                 false,
		ServerHeader:            "Sales-Analyzer",
		DisableStartupMessage:   false,
		AppName:                 "Sales Analyzer v1.0.0",
		ReadTimeout:             cfg.APIReadTimeout,
		WriteTimeout:            cfg.APIWriteTimeout,
		IdleTimeout:             120 * time.Second,
		ReadBufferSize:          8192,
		WriteBufferSize:         8192,
		CompressedFileSuffix:    ".gz",
		ProxyHeader:             "X-Forwarded-For",
		EnableTrustedProxyCheck: true,
		BodyLimit:               10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendOrigin,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	api.SetupRoutes(app, handler, cfg)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	pkglogger.Info("iniciando servidor",
		zap.String("addr", addr),
		zap.String("source", source.Name()),
		zap.Bool("async_etl", etlService.AsyncEnabled()))

	if err := app.Listen(addr); err != nil {
		log.Fatal("Server error:", err)
	}
}

func connectPostgres(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar conexão: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao testar conexão: %w", err)
	}

	if cfg.DBAutoInit {
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("erro ao criar schema: %w", err)
		}
	}

	log.Println("✅ Conectado ao PostgreSQL")
	return db, nil
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Printf("⚠️ Redis não disponível: %v (continuando sem jobs assíncronos)", err)
		return nil
	}

	log.Println("✅ Conectado ao Redis")
	return redisCache
}
