package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/pausal-api/internal/config"
	"github.com/ashmitsharp/pausal-api/internal/database"
	"github.com/ashmitsharp/pausal-api/internal/handlers"
	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/metrics"
	"github.com/ashmitsharp/pausal-api/internal/middleware"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
	"github.com/ashmitsharp/pausal-api/internal/utils"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var log zerolog.Logger
	if cfg.Environment == "development" {
		log = logger.New(cfg.LogLevel)
	} else {
		log = logger.NewJSON(os.Stdout, cfg.LogLevel)
	}
	if envErr != nil {
		log.Debug().Msg(".env file not found, using system environment variables")
	}

	ctx := logger.WithContext(context.Background(), log)
	metrics.Init()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBConnectionTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	log.Info().Msg("connected to database")

	transactions := database.NewTransactionRepository(pool)
	invoices := database.NewInvoiceRepository(pool)

	// Initialize services
	tables, err := services.LoadBracketTables(cfg.BracketsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.BracketsFile).Msg("failed to load tax brackets")
	}
	categorizer := services.NewDefaultCategorizer()
	calculator := services.NewPOSDCalculator(categorizer, tables)
	exporter := services.NewLedgerExporter(categorizer)

	// Exports are streamed directly unless a bucket is configured
	var exportStorage handlers.ExportStorage
	if cfg.S3Bucket != "" {
		storage, err := services.NewStorageService(cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize storage service")
		}
		exportStorage = storage
		log.Info().Str("bucket", cfg.S3Bucket).Msg("ledger exports go to S3")
	}

	var verifier middleware.TokenVerifier
	if cfg.RequireAuth {
		if cfg.ClerkSecretKey == "" {
			log.Fatal().Msg("REQUIRE_AUTH is set but CLERK_SECRET_KEY is empty")
		}
		verifier = middleware.ClerkVerifier(cfg.ClerkSecretKey)
	} else {
		log.Warn().Msg("authentication disabled, requests run as the local user")
	}

	// Initialize handlers
	profile := models.Profile{OIB: cfg.OIB, Name: cfg.Name, Address: cfg.Address}
	payee := services.Payee{Name: cfg.PayeeName, IBAN: cfg.PayeeIBAN, PurposeCode: cfg.PayeePurposeCode}

	transactionHandler := handlers.NewTransactionHandler(transactions)
	summaryHandler := handlers.NewSummaryHandler(transactions, categorizer)
	posdHandler := handlers.NewPOSDHandler(transactions, calculator, exporter, exportStorage, profile, payee, cfg.ExportURLTTL)
	invoiceHandler := handlers.NewInvoiceHandler(invoices)
	rulesHandler := handlers.NewRulesHandler(categorizer)
	usersHandler := handlers.NewUsersHandler(profile, verifier != nil)

	app := fiber.New(fiber.Config{
		AppName:      "pausal API v1.0",
		ErrorHandler: utils.ErrorHandler,
	})

	// Apply global middleware
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check endpoint (public)
	app.Get("/health", func(c fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "unavailable",
				"service": "pausal-api",
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "pausal-api",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := app.Group("/v1", middleware.Auth(verifier))

	v1.Get("/me", usersHandler.GetMe)

	// Transaction routes
	v1.Get("/transactions", transactionHandler.GetTransactions)
	v1.Post("/transactions/review", transactionHandler.ReviewTransactions)
	v1.Get("/summary", summaryHandler.GetSummary)

	// Classification rule routes
	v1.Get("/rules", rulesHandler.GetRules)
	v1.Get("/rules/match", rulesHandler.MatchRule)

	// PO-SD routes
	v1.Get("/posd-stats", posdHandler.GetStats)
	v1.Get("/posd/payment-order", posdHandler.GetPaymentOrder)
	v1.Get("/posd/export", posdHandler.Export)

	// Invoice routes
	v1.Post("/invoices", invoiceHandler.CreateInvoice)
	v1.Post("/invoices/totals", invoiceHandler.PreviewTotals)
	v1.Get("/invoices/:id", invoiceHandler.GetInvoice)

	// Graceful shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown did not complete")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Str("environment", cfg.Environment).Msg("pausal API is running")
	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
