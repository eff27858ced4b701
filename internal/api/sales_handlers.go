package api

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/export"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

// GetSalesPreview returns the row count and the first rows of the table.
func (h *Handler) GetSalesPreview(c *fiber.Ctx) error {
	limit, err := queryIntDefault(c, "limit", service.DefaultPreviewLimit, 1)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}

	preview, err := h.salesService.Preview(c.Context(), limit)
	if err != nil {
		return h.fail(c, err, "erro ao carregar vendas")
	}

	return c.JSON(preview)
}

func (h *Handler) GetSummary(c *fiber.Ctx) error {
	start := time.Now()

	filters, err := parseFilters(c)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}

	summary, err := h.salesService.Summary(c.Context(), &filters)
	if err != nil {
		return h.fail(c, err, "erro ao calcular resumo")
	}

	logger.Info("resumo de vendas",
		zap.Int("sales_count", summary.SalesCount),
		zap.Bool("filtered", !filters.IsEmpty()),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", getRequestID(c)))

	return c.JSON(SummaryResponse{SummaryResult: summary, Filters: filters})
}

func (h *Handler) ListSales(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}
	page, err := parsePage(c)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}

	result, err := h.salesService.ListSales(c.Context(), service.SalesQuery{
		Filters: filters,
		Sort:    parseSort(c),
		Page:    page,
	})
	if err != nil {
		return h.fail(c, err, "erro ao listar vendas")
	}

	return c.JSON(result)
}

func (h *Handler) GetSalesByPeriod(c *fiber.Ctx) error {
	period := c.Query("period", query.PeriodMonth)

	filters, err := parseFilters(c)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}

	data, err := h.salesService.ByPeriod(c.Context(), period, &filters)
	if err != nil {
		return h.fail(c, err, "erro ao agrupar vendas por período")
	}

	return c.JSON(PeriodResponse{Period: period, Data: data, Count: len(data)})
}

func (h *Handler) GetTopProducts(c *fiber.Ctx) error {
	limit, err := queryIntDefault(c, "limit", query.TopProductsLimit, 1)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}
	by := c.Query("by", query.RankByRevenue)

	filters, err := parseFilters(c)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}

	data, err := h.salesService.TopProducts(c.Context(), limit, by, &filters)
	if err != nil {
		return h.fail(c, err, "erro ao buscar top produtos")
	}

	return c.JSON(TopProductsResponse{By: by, Data: data, Count: len(data)})
}

// ExportExcel streams the rows matching the filters as sales.xlsx.
func (h *Handler) ExportExcel(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return h.fail(c, err, "parâmetro inválido")
	}

	table, err := h.salesService.Table(c.Context(), &filters)
	if err != nil {
		return h.fail(c, err, "erro ao carregar vendas")
	}

	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, table); err != nil {
		return h.fail(c, err, "erro ao gerar planilha")
	}

	c.Attachment("sales.xlsx")
	c.Set(fiber.HeaderContentType, export.XLSXType)
	return c.Send(buf.Bytes())
}
