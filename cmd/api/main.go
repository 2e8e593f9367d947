package main

import (
	"context"
	"log"

	"github.com/gastrokasse/fiskal-api/internal/application/service"
	"github.com/gastrokasse/fiskal-api/internal/config"
	"github.com/gastrokasse/fiskal-api/internal/infrastructure/database"
	"github.com/gastrokasse/fiskal-api/internal/infrastructure/repository"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/handler"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/routes"
	"github.com/gastrokasse/fiskal-api/pkg/printer"
	"github.com/gastrokasse/fiskal-api/pkg/tse"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	receiptRepo := repository.NewFiscalReceiptRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize the simulated fiscal memory device
	device := tse.NewDevice(cfg.Fiscal.MemorySerial, tse.NewSimulatedSigner())

	// Initialize services
	fiscalService := service.NewFiscalService(receiptRepo, device)
	if err := fiscalService.SeedCounters(context.Background()); err != nil {
		log.Fatalf("Failed to seed fiscal counters: %v", err)
	}
	reportService := service.NewReportService(receiptRepo)

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	printerService := service.NewPrinterService(thermalPrinter, fiscalService, service.StoreHeader{
		Name:    cfg.Fiscal.StoreName,
		Address: cfg.Fiscal.StoreAddress,
		TaxID:   cfg.Fiscal.TaxID,
	}, cfg.Printer.Type)

	// Initialize handlers
	handlers := &routes.Handlers{
		Receipt: handler.NewReceiptHandler(fiscalService),
		Report:  handler.NewReportHandler(reportService),
		Printer: handler.NewPrinterHandler(printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	// Start server
	log.Printf("Starting %s on port %s", cfg.App.Name, cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
