package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeovahfialho/sales-analyzer/internal/config"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
)

func SetupRoutes(app *fiber.App, handler *Handler, cfg *config.Config) {
	// Global middlewares
	app.Use(RequestID())
	app.Use(AccessLog())
	app.Use(ErrorHandler())

	// Health checks (sem rate limiting)
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", handler.Dashboard)

	// API v1 - com middlewares de rate limiting e métricas
	v1 := app.Group("/api/v1")
	v1.Use(RateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow))
	v1.Use(PrometheusMiddleware())

	metrics := v1.Group("/metrics")
	metrics.Get("/sales", handler.GetSalesPreview)
	metrics.Get("/summary", handler.GetSummary)

	sales := v1.Group("/sales")
	sales.Get("/", handler.ListSales)
	sales.Get("/by-period", handler.GetSalesByPeriod)
	sales.Get("/top-products", handler.GetTopProducts)

	stats := v1.Group("/stats")
	stats.Get("/pearson", handler.GetPearson)
	stats.Get("/ols", handler.GetOLS)

	ml := v1.Group("/ml")
	ml.Post("/train", handler.TrainModel)
	ml.Post("/predict", handler.Predict)
	ml.Get("/linear-regression", handler.GetLinearRegression)

	charts := v1.Group("/charts")
	for _, name := range []string{service.ChartRevenueByProduct, service.ChartQuantityVsPrice} {
		charts.Get("/"+name, handler.ChartJSON(name))
		charts.Get("/"+name+".png", handler.ChartPNG(name))
	}

	v1.Get("/export/excel", handler.ExportExcel)

	etl := v1.Group("/etl")
	etl.Post("/run", handler.RunETL)
	etl.Get("/jobs", handler.ListETLJobs)
	etl.Get("/jobs/:id", handler.GetETLJob)

	v1.Post("/gold/export", handler.ExportGold)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(BasicAuth(cfg.AdminUser, cfg.AdminPassword))
	admin.Delete("/cache", handler.InvalidateCache)
	admin.Post("/cache/refresh", handler.RefreshCache)
	admin.Get("/stats", handler.GetSystemStats)
	admin.Post("/load", handler.LoadDataFromFile)
}

func BasicAuth(user, password string) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Users: map[string]string{user: password},
		Unauthorized: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		},
	})
}
