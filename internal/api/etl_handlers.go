package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/service"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

// RunETL runs the pipeline inline, or in the background with ?async=true.
func (h *Handler) RunETL(c *fiber.Ctx) error {
	if c.QueryBool("async") {
		job, err := h.etlService.Start(c.Context())
		if err != nil {
			return h.fail(c, err, "erro ao iniciar etl")
		}

		logger.Info("etl assíncrono iniciado",
			zap.String("job_id", job.ID),
			zap.String("request_id", getRequestID(c)))

		return c.Status(fiber.StatusAccepted).JSON(ETLRunResponse{Status: job.Status, Job: job})
	}

	result, err := h.etlService.Run(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao executar etl")
	}

	return c.JSON(ETLRunResponse{Status: "ok", Result: result})
}

func (h *Handler) GetETLJob(c *fiber.Ctx) error {
	job, err := h.etlService.Job(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "erro ao buscar job")
	}
	return c.JSON(job)
}

func (h *Handler) ListETLJobs(c *fiber.Ctx) error {
	jobs, err := h.etlService.Jobs(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao listar jobs")
	}
	return c.JSON(fiber.Map{
		"data":  jobs,
		"count": len(jobs),
	})
}

// ExportGold converts the ETL parquet into the gold CSV. A missing parquet is
// reported in the body, not as an error status.
func (h *Handler) ExportGold(c *fiber.Ctx) error {
	result, err := h.etlService.ExportGold(c.Context())
	if err != nil {
		return h.fail(c, err, "erro ao exportar camada gold")
	}
	return c.JSON(result)
}

// LoadDataFromFile bulk-loads CSV files into the sales table and drops the
// cached table afterwards.
func (h *Handler) LoadDataFromFile(c *fiber.Ctx) error {
	if h.ingestionService == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "ingestão requer ETL_SOURCE=postgres")
	}

	var req LoadDataRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "corpo da requisição inválido")
	}

	paths := req.FilePaths
	if p := strings.TrimSpace(req.FilePath); p != "" {
		paths = append([]string{p}, paths...)
	}
	if len(paths) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "file_path é obrigatório")
	}

	results, err := h.ingestionService.ProcessFiles(c.Context(), paths)
	if err != nil {
		return h.fail(c, err, "erro ao processar arquivos")
	}
	h.salesService.InvalidateCache()
	h.statsService.ResetModel()

	loaded, failed := service.Summarize(results)
	response := LoadDataResponse{
		RecordsCount: loaded,
		Failed:       failed,
		Files:        results,
		Status:       "completed",
		Message:      "arquivos processados com sucesso",
	}
	if failed > 0 {
		response.Status = "partial"
		response.Message = "alguns arquivos falharam"
	}

	return c.JSON(response)
}
