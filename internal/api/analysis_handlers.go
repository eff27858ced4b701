package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/charts"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

func (h *Handler) GetPearson(c *fiber.Ctx) error {
	result, err := h.statsService.Pearson(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao calcular correlação")
	}
	return c.JSON(result)
}

func (h *Handler) GetOLS(c *fiber.Ctx) error {
	result, err := h.statsService.OLS(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao ajustar regressão")
	}
	return c.JSON(result)
}

func (h *Handler) GetLinearRegression(c *fiber.Ctx) error {
	result, err := h.statsService.LinearRegression(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao ajustar regressão linear")
	}
	return c.JSON(result)
}

func (h *Handler) TrainModel(c *fiber.Ctx) error {
	result, err := h.statsService.Train(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao treinar modelo")
	}

	logger.Info("modelo treinado via api",
		zap.Float64("r2", result.R2),
		zap.String("request_id", getRequestID(c)))

	return c.JSON(result)
}

func (h *Handler) Predict(c *fiber.Ctx) error {
	var req domain.PredictRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "corpo da requisição inválido")
	}

	result, err := h.statsService.Predict(c.Context(), req)
	if err != nil {
		return h.fail(c, err, "erro ao prever total")
	}
	return c.JSON(result)
}

// ChartJSON returns the named chart as a data URI. A table without plottable
// data answers 200 with a null image.
func (h *Handler) ChartJSON(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		png, err := h.chartService.Render(c.Context(), name)
		if errors.Is(err, domain.ErrNoData) {
			return c.JSON(ChartResponse{Error: err.Error()})
		}
		if err != nil {
			return h.fail(c, err, "erro ao gerar gráfico")
		}

		uri := charts.DataURI(png)
		return c.JSON(ChartResponse{Image: &uri})
	}
}

func (h *Handler) ChartPNG(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		png, err := h.chartService.Render(c.Context(), name)
		if err != nil {
			return h.fail(c, err, "erro ao gerar gráfico")
		}

		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}
}
