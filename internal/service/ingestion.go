package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/ingestion"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

type IngestionService struct {
	parser  *ingestion.Parser
	sink    ingestion.RowSink
	workers int
}

func NewIngestionService(parser *ingestion.Parser, sink ingestion.RowSink, workers int) *IngestionService {
	if workers <= 0 {
		workers = 1
	}
	return &IngestionService{
		parser:  parser,
		sink:    sink,
		workers: workers,
	}
}

type ProcessFileResult struct {
	FilePath     string `json:"file_path"`
	RecordsCount int64  `json:"records_count"`
	Malformed    int    `json:"malformed"`
	Error        string `json:"error,omitempty"`
}

// ProcessFile parses one CSV and bulk-loads its rows into the sales table.
func (s *IngestionService) ProcessFile(ctx context.Context, filePath string) (*ProcessFileResult, error) {
	results, err := s.ProcessFiles(ctx, []string{filePath})
	if err != nil {
		return nil, err
	}
	r := results[0]
	if r.Error != "" {
		return &r, errors.New(r.Error)
	}
	return &r, nil
}

// ProcessFiles loads several files through the worker pool. Per-file failures
// are reported in the results; the returned error is set only when the
// context ends first.
func (s *IngestionService) ProcessFiles(ctx context.Context, paths []string) ([]ProcessFileResult, error) {
	pool := ingestion.NewWorkerPool(min(s.workers, max(len(paths), 1)), s.parser, s.sink)
	pool.Start(ctx)

	resultCh := make(chan ingestion.JobResult, len(paths))
	go func() {
		for _, p := range paths {
			logger.Info("processando arquivo", zap.String("file", p))
			if !pool.Submit(ctx, ingestion.Job{FilePath: p, Result: resultCh}) {
				return
			}
		}
	}()

	byPath := make(map[string]ingestion.JobResult, len(paths))
	for range paths {
		select {
		case r := <-resultCh:
			byPath[r.FilePath] = r
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	pool.Stop()

	results := make([]ProcessFileResult, 0, len(paths))
	for _, p := range paths {
		r := byPath[p]
		out := ProcessFileResult{FilePath: p, RecordsCount: r.RecordsCount, Malformed: r.Malformed}
		if r.Error != nil {
			out.Error = r.Error.Error()
		}
		results = append(results, out)
		logger.Info("arquivo processado",
			zap.String("file", p),
			zap.Int64("records", r.RecordsCount),
			zap.Int("malformed", r.Malformed),
			zap.String("error", out.Error))
	}
	return results, nil
}

// Summarize totals a batch of results.
func Summarize(results []ProcessFileResult) (loaded int64, failed int) {
	for _, r := range results {
		loaded += r.RecordsCount
		if r.Error != "" {
			failed++
		}
	}
	return loaded, failed
}

func (r ProcessFileResult) String() string {
	if r.Error != "" {
		return fmt.Sprintf("%s: erro: %s", r.FilePath, r.Error)
	}
	return fmt.Sprintf("%s: %d registros (%d malformados)", r.FilePath, r.RecordsCount, r.Malformed)
}
