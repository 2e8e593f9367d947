package routes

import (
	"time"

	"github.com/gastrokasse/fiskal-api/internal/config"
	domainRepo "github.com/gastrokasse/fiskal-api/internal/domain/repository"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/handler"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Receipt *handler.ReceiptHandler
	Report  *handler.ReportHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Per-client rate limiter
		rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		v1.Use(rateLimiter.Middleware())

		registerReceiptRoutes(v1, h, deps)
		registerReportRoutes(v1, h)
		registerPrinterRoutes(v1, h)
	}

	return router
}

func registerReceiptRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	receipts := v1.Group("/receipts")
	{
		idempotency := middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		})

		receipts.POST("", idempotency, h.Receipt.Create)
		receipts.GET("", h.Receipt.List)
		receipts.GET("/export", h.Receipt.Export)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.POST("/:id/cancel", h.Receipt.Cancel)
		receipts.POST("/:id/print", h.Printer.PrintReceipt)
	}
}

func registerReportRoutes(v1 *gin.RouterGroup, h *Handlers) {
	reports := v1.Group("/reports")
	{
		reports.GET("/daily", h.Report.Daily)
		reports.GET("/daily/download", h.Report.DailyDownload)
		reports.GET("/range", h.Report.Range)
	}
}

func registerPrinterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	printer := v1.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
	}
}
