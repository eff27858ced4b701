package api

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/postgres"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

const version = "1.0.0"

// Dependencies wires the handler. DB, Redis, Jobs and Ingestion are optional
// and left nil when the backing service is not configured.
type Dependencies struct {
	DB        *postgres.DB
	Redis     *cache.RedisCache
	Jobs      *cache.JobStore
	Sales     *service.SalesService
	Stats     *service.StatsService
	Charts    *service.ChartService
	ETL       *service.ETLService
	Ingestion *service.IngestionService

	PowerBIEmbedURL string
}

type Handler struct {
	db               *postgres.DB
	redis            *cache.RedisCache
	jobs             *cache.JobStore
	salesService     *service.SalesService
	statsService     *service.StatsService
	chartService     *service.ChartService
	etlService       *service.ETLService
	ingestionService *service.IngestionService
	powerBIEmbedURL  string
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		db:               deps.DB,
		redis:            deps.Redis,
		jobs:             deps.Jobs,
		salesService:     deps.Sales,
		statsService:     deps.Stats,
		chartService:     deps.Charts,
		etlService:       deps.ETL,
		ingestionService: deps.Ingestion,
		powerBIEmbedURL:  deps.PowerBIEmbedURL,
	}
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   version,
		Timestamp: time.Now(),
	})
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func checkService(ctx context.Context, svc healthChecker) ServiceHealth {
	start := time.Now()
	if err := svc.HealthCheck(ctx); err != nil {
		return ServiceHealth{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	}
	return ServiceHealth{
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}
}

// ReadinessCheck checks the configured backing services. Services that are
// not configured are not reported.
func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)
	if h.db != nil {
		services["database"] = checkService(ctx, h.db)
	}
	if h.redis != nil {
		services["redis"] = checkService(ctx, h.redis)
	}

	status := "ready"
	for _, svc := range services {
		if svc.Status != "healthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   version,
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := SystemStatsResponse{
		Cache: h.salesService.CacheStats(),
		API: APIStats{
			MemoryUsed:       fmt.Sprintf("%d MB", m.Alloc/1024/1024),
			ActiveGoroutines: runtime.NumGoroutine(),
		},
	}

	if h.db != nil {
		dbStats := h.db.Stats()
		response.Database = &DatabaseStats{
			ActiveConnections: dbStats.AcquiredConns(),
			IdleConnections:   dbStats.IdleConns(),
			TotalConnections:  dbStats.TotalConns(),
			WaitCount:         dbStats.EmptyAcquireCount(),
			WaitDuration:      dbStats.AcquireDuration().String(),
		}
	}

	return c.JSON(response)
}

// InvalidateCache drops the cached sales table. With ?jobs=true the stored
// ETL job records are purged as well.
func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	h.salesService.InvalidateCache()

	response := CacheInvalidateResponse{
		Status:  "success",
		Message: "cache de vendas invalidado",
	}

	if c.QueryBool("jobs") && h.jobs != nil {
		removed, err := h.jobs.Purge(c.Context())
		if err != nil {
			return h.fail(c, err, "erro ao limpar jobs")
		}
		response.JobsRemoved = removed
		response.Message = fmt.Sprintf("cache de vendas invalidado, %d jobs removidos", removed)
	}

	logger.Info("cache invalidado",
		zap.Int("jobs_removed", response.JobsRemoved),
		zap.String("request_id", getRequestID(c)))

	return c.JSON(response)
}

// RefreshCache reloads the sales table from the source into the cache and
// drops the trained model, which was fitted on the previous table.
func (h *Handler) RefreshCache(c *fiber.Ctx) error {
	table, err := h.salesService.Refresh(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao recarregar vendas")
	}
	h.statsService.ResetModel()

	logger.Info("cache recarregado",
		zap.Int("rows", table.Len()),
		zap.String("request_id", getRequestID(c)))

	return c.JSON(CacheRefreshResponse{
		Status:   "success",
		Rows:     table.Len(),
		LoadedAt: h.salesService.CacheStats().LoadedAt,
	})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var pe *paramError
	switch {
	case errors.As(err, &pe), errors.Is(err, domain.ErrInvalidPeriod):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNoData):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrModelNotTrained):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrJobStoreUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as an ErrorResponse. Client errors carry the error text;
// server errors carry msg and are logged.
func (h *Handler) fail(c *fiber.Ctx, err error, msg string) error {
	code := statusFor(err)

	text := err.Error()
	if code >= fiber.StatusInternalServerError {
		logger.Error(msg,
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("request_id", getRequestID(c)))

		text = msg
		if errors.Is(err, domain.ErrDataSourceUnavailable) {
			text = fmt.Sprintf("%s: %s", msg, domain.ErrDataSourceUnavailable)
		}
	}

	return errorResponse(c, code, text)
}

func errorResponse(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func getRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}
