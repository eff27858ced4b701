package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

const (
	DefaultPreviewLimit = 100
	DefaultPageSize     = 50
	MaxPageSize         = 1000
)

type SalesService struct {
	loader *Loader
}

func NewSalesService(loader *Loader) *SalesService {
	return &SalesService{loader: loader}
}

// SalesQuery is the input of ListSales. Page holds the offset/limit window;
// a nil Limit returns every remaining row.
type SalesQuery struct {
	Filters domain.FilterSpec
	Sort    domain.SortSpec
	Page    domain.PageSpec
}

// Preview returns the row count and the first limit rows of the full table.
func (s *SalesService) Preview(ctx context.Context, limit int) (*domain.SalesPreview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return nil, err
	}

	page, _ := query.Paginate(table, domain.PageSpec{Limit: &limit})
	return &domain.SalesPreview{Rows: table.Len(), Preview: page.Rows}, nil
}

// ListSales filters, sorts and paginates the table. Filtering happens in the
// load, so only sort and paginate run here.
func (s *SalesService) ListSales(ctx context.Context, q SalesQuery) (*domain.SalesPage, error) {
	table, err := s.loader.Load(ctx, true, &q.Filters)
	if err != nil {
		return nil, err
	}

	page, total := query.Paginate(query.Sort(table, q.Sort), q.Page)

	pageSize := total
	if q.Page.Limit != nil {
		pageSize = *q.Page.Limit
	}
	current := 1
	if pageSize > 0 {
		if current = q.Page.Offset / pageSize; current < math.MaxInt {
			current++
		}
	}

	return &domain.SalesPage{
		Data: page.Rows,
		Pagination: domain.Pagination{
			TotalItems:  total,
			TotalPages:  query.TotalPages(total, pageSize),
			CurrentPage: current,
			PageSize:    pageSize,
		},
	}, nil
}

// Summary computes the rollups over the rows matching filters.
func (s *SalesService) Summary(ctx context.Context, filters *domain.FilterSpec) (domain.SummaryResult, error) {
	timer := metrics.NewTimer()

	table, err := s.loader.Load(ctx, true, filters)
	if err != nil {
		return domain.SummaryResult{}, err
	}

	result := query.Summarize(table)
	metrics.RecordSummaryRequest(!filters.IsEmpty(), result.Degraded())
	if result.Degraded() {
		logger.Warn("resumo degradado", zap.Strings("warnings", result.Warnings))
	}

	logger.Debug("resumo calculado",
		zap.Int("sales_count", result.SalesCount),
		zap.Duration("elapsed", timer.Elapsed()))

	return result, nil
}

func (s *SalesService) ByPeriod(ctx context.Context, period string, filters *domain.FilterSpec) ([]domain.PeriodSales, error) {
	if _, err := query.PeriodLabel(time.Time{}, period); err != nil {
		return nil, err
	}

	table, err := s.loader.Load(ctx, true, filters)
	if err != nil {
		return nil, err
	}
	return query.SalesByPeriod(table, period)
}

func (s *SalesService) TopProducts(ctx context.Context, n int, by string, filters *domain.FilterSpec) ([]domain.ProductSales, error) {
	if n <= 0 {
		n = query.TopProductsLimit
	}

	table, err := s.loader.Load(ctx, true, filters)
	if err != nil {
		return nil, err
	}
	return query.TopProducts(table, n, by), nil
}

// Table returns the rows matching filters; nil filters return the full table.
func (s *SalesService) Table(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	return s.loader.Load(ctx, true, filters)
}

// Refresh reloads the table from the source, bypassing the cache.
func (s *SalesService) Refresh(ctx context.Context) (*domain.SalesTable, error) {
	return s.loader.Load(ctx, false, nil)
}

func (s *SalesService) InvalidateCache() {
	s.loader.Cache().Invalidate()
}

// CacheStats describes the table cache for the admin endpoint.
type CacheStats struct {
	Source   string     `json:"source"`
	Cached   bool       `json:"cached"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	TTL      string     `json:"ttl"`
}

func (s *SalesService) CacheStats() CacheStats {
	stats := CacheStats{
		Source: s.loader.SourceName(),
		TTL:    s.loader.ttl.String(),
	}
	if at := s.loader.Cache().LoadedAt(); !at.IsZero() {
		stats.Cached = true
		stats.LoadedAt = &at
	}
	return stats
}
