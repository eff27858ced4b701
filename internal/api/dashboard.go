package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/charts"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
	"github.com/jeovahfialho/sales-analyzer/internal/web"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

// Dashboard renders the HTML overview. Load failures are shown on the page.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	ctx := c.Context()
	data := web.DashboardData{
		Summary:         domain.EmptySummary(),
		Charts:          map[string]string{},
		PowerBIEmbedURL: h.powerBIEmbedURL,
		GeneratedAt:     time.Now(),
	}

	summary, err := h.salesService.Summary(ctx, nil)
	if err != nil {
		logger.Error("erro ao montar dashboard", zap.Error(err), zap.String("request_id", getRequestID(c)))
		data.Error = "não foi possível carregar as vendas: " + domain.ErrDataSourceUnavailable.Error()
		return h.renderDashboard(c, data)
	}
	data.Summary = summary

	if data.TopProducts, err = h.salesService.TopProducts(ctx, query.TopProductsLimit, query.RankByRevenue, nil); err != nil {
		logger.Warn("top produtos indisponível", zap.Error(err))
	}

	images, err := h.chartService.RenderAll(ctx)
	if err != nil {
		logger.Warn("gráficos indisponíveis", zap.Error(err))
	}
	for name, png := range images {
		data.Charts[name] = charts.DataURI(png)
	}

	return h.renderDashboard(c, data)
}

func (h *Handler) renderDashboard(c *fiber.Ctx, data web.DashboardData) error {
	c.Type("html", "utf-8")
	return web.Dashboard(data).Render(c.Context(), c.Response().BodyWriter())
}
