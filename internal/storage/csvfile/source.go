package csvfile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/config"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/ingestion"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

// maxLoggedRows bounds how many malformed rows are logged individually per load.
const maxLoggedRows = 10

// Source reads the sales table from a flat CSV file. Filters are applied in
// memory after parsing.
type Source struct {
	path   string
	parser *ingestion.Parser
}

func NewSource(path string, parser *ingestion.Parser) *Source {
	if parser == nil {
		parser = ingestion.NewParser(0, 1)
	}
	return &Source{path: path, parser: parser}
}

func (s *Source) Name() string {
	return config.SourceCSV
}

func (s *Source) Read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, domain.Unavailable(config.SourceCSV, fmt.Errorf("erro ao abrir %s: %w", s.path, err))
	}
	defer file.Close()

	result, err := s.parser.ParseFile(ctx, file)
	if errors.Is(err, ingestion.ErrEmptyFile) {
		return domain.NewSalesTable(nil, []domain.SalesRow{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao ler %s: %w", s.path, err)
	}

	if n := len(result.Errors); n > 0 {
		metrics.MalformedRows.WithLabelValues(config.SourceCSV).Add(float64(n))
		for i, bad := range result.Errors {
			if i == maxLoggedRows {
				break
			}
			logger.Component("csv").Warn("linha ignorada", zap.String("file", s.path), zap.Int("line", bad.Line), zap.String("reason", bad.Reason))
		}
		logger.Component("csv").Warn("linhas malformadas descartadas", zap.String("file", s.path), zap.Int("count", n))
	}

	if filters.IsEmpty() {
		return result.Table, nil
	}
	return query.ApplyFilters(result.Table, *filters), nil
}
