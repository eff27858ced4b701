package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

func newMiddlewareApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Use(AccessLog())
	app.Use(ErrorHandler())

	app.Get("/job", func(c *fiber.Ctx) error {
		return fmt.Errorf("buscando job: %w", domain.ErrJobNotFound)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("falha inesperada")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "chá")
	})
	return app
}

func TestErrorHandler(t *testing.T) {
	app := newMiddlewareApp()

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/job", fiber.StatusNotFound, "buscando job: " + domain.ErrJobNotFound.Error()},
		{"/boom", fiber.StatusInternalServerError, "erro interno"},
		{"/teapot", fiber.StatusTeapot, "chá"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(headerRequestID, "req-42")
			resp, body := doRequest(t, app, req)

			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d body = %s", resp.StatusCode, tt.status, body)
			}
			var e ErrorResponse
			decode(t, body, &e)
			if e.Error != tt.message || e.Code != tt.status || e.RequestID != "req-42" {
				t.Errorf("error response = %+v", e)
			}
		})
	}
}

func TestRequestIDGenerated(t *testing.T) {
	app := newMiddlewareApp()

	resp, _ := get(t, app, "/job")
	if id := resp.Header.Get(headerRequestID); len(id) != 36 {
		t.Errorf("generated request id = %q", id)
	}
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Use(RateLimiter(2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 2; i++ {
		if resp, _ := get(t, app, "/"); resp.StatusCode != fiber.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, resp.StatusCode)
		}
	}

	resp, body := get(t, app, "/")
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	var e ErrorResponse
	decode(t, body, &e)
	if e.Code != fiber.StatusTooManyRequests || e.RequestID == "" {
		t.Errorf("error response = %+v", e)
	}
}
