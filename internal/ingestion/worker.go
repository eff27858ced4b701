package ingestion

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

// RowSink receives the parsed rows of one file.
type RowSink interface {
	LoadSalesConcurrent(ctx context.Context, rows []domain.SalesRow) (int64, error)
}

type WorkerPool struct {
	workers  int
	parser   *Parser
	sink     RowSink
	jobQueue chan Job
	wg       sync.WaitGroup
}

type Job struct {
	FilePath string
	Result   chan<- JobResult
}

type JobResult struct {
	FilePath     string
	RecordsCount int64
	Malformed    int
	Error        error
}

func NewWorkerPool(workers int, parser *Parser, sink RowSink) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		workers:  workers,
		parser:   parser,
		sink:     sink,
		jobQueue: make(chan Job, workers*2),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

// Submit queues job, giving up when ctx ends first.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) bool {
	select {
	case wp.jobQueue <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processFile(ctx, job.FilePath)
			if result.Error != nil {
				logger.Warn("falha ao processar arquivo",
					zap.Int("worker", id),
					zap.String("file", job.FilePath),
					zap.Error(result.Error))
			}
			job.Result <- result
		}
	}
}

func (wp *WorkerPool) processFile(ctx context.Context, filePath string) JobResult {
	file, err := os.Open(filePath)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("erro ao abrir arquivo: %w", err),
		}
	}
	defer file.Close()

	parseResult, err := wp.parser.ParseFile(ctx, file)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("erro no parse: %w", err),
		}
	}
	metrics.MalformedRows.WithLabelValues("ingestion").Add(float64(len(parseResult.Errors)))

	count, err := wp.sink.LoadSalesConcurrent(ctx, parseResult.Table.Rows)
	if err != nil {
		metrics.RowsIngested.WithLabelValues("error").Add(float64(len(parseResult.Table.Rows)) - float64(count))
		return JobResult{
			FilePath:     filePath,
			RecordsCount: count,
			Malformed:    len(parseResult.Errors),
			Error:        fmt.Errorf("erro ao carregar: %w", err),
		}
	}
	metrics.RowsIngested.WithLabelValues("success").Add(float64(count))

	return JobResult{
		FilePath:     filePath,
		RecordsCount: count,
		Malformed:    len(parseResult.Errors),
	}
}
