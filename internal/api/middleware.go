package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	localsRequestID = "requestID"

	defaultRateLimit  = 100
	defaultRateWindow = time.Minute
)

// PrometheusMiddleware records latency and count per route template, so
// /etl/jobs/:id is one series regardless of the id.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		timer := metrics.NewTimer()
		err := c.Next()
		metrics.RecordHTTPRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), timer.Elapsed())
		return err
	}
}

// RateLimiter allows limit requests per client IP in a sliding window. Zero
// values fall back to 100 per minute.
func RateLimiter(limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn("limite de requisições atingido",
				zap.String("ip", c.IP()),
				zap.String("request_id", getRequestID(c)))
			return errorResponse(c, fiber.StatusTooManyRequests, "muitas requisições, tente novamente em instantes")
		},
	})
}

// ErrorHandler turns errors that escape a handler into an ErrorResponse.
// fiber errors keep their code; service errors go through statusFor.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return errorResponse(c, fe.Code, fe.Message)
		}

		code := statusFor(err)
		if code >= fiber.StatusInternalServerError {
			logger.WithContext(c.UserContext()).Error("erro não tratado", zap.String("path", c.Path()), zap.Error(err))
			return errorResponse(c, code, "erro interno")
		}
		return errorResponse(c, code, err.Error())
	}
}

// RequestID propagates X-Request-ID, generating one when absent. The id is
// stored in Locals and in the user context read by logger.WithContext.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(headerRequestID, requestID)
		c.Locals(localsRequestID, requestID)
		c.SetUserContext(context.WithValue(c.UserContext(), logger.RequestIDKey, requestID))

		return c.Next()
	}
}

// AccessLog writes one structured line per request. 5xx responses log at
// error level and 4xx at warn.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		log := logger.WithContext(c.UserContext())
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("requisição", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("requisição", fields...)
		default:
			log.Info("requisição", fields...)
		}
		return err
	}
}
