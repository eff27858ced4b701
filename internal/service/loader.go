package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

// Source produces the sales table. Implementations apply filters themselves,
// either in the query or in memory.
type Source interface {
	Name() string
	Read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error)
}

// Loader reads the sales table from its source and keeps the unfiltered table
// in a TTL cache. Filtered loads never touch the cache.
type Loader struct {
	source Source
	cache  *cache.TableCache
	ttl    time.Duration
	now    func() time.Time
}

func NewLoader(source Source, tableCache *cache.TableCache, ttl time.Duration) *Loader {
	if tableCache == nil {
		tableCache = cache.NewTableCache()
	}
	return &Loader{
		source: source,
		cache:  tableCache,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *Loader) SourceName() string {
	return l.source.Name()
}

func (l *Loader) Cache() *cache.TableCache {
	return l.cache
}

// Load returns the sales table. With no active filter and useCache set, a
// cached copy younger than the TTL is served; otherwise the source is read and
// an unfiltered result replaces the cache entry.
func (l *Loader) Load(ctx context.Context, useCache bool, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	if !filters.IsEmpty() {
		return l.read(ctx, filters)
	}

	if useCache {
		return l.cache.GetOrLoad(ctx, l.ttl, func(ctx context.Context) (*domain.SalesTable, error) {
			return l.read(ctx, nil)
		})
	}

	table, err := l.read(ctx, nil)
	if err != nil {
		return nil, err
	}
	l.cache.Store(table)
	return table, nil
}

func (l *Loader) read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	source := l.source.Name()
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SalesLoadDuration.WithLabelValues(source))

	table, err := l.source.Read(ctx, filters)
	metrics.RecordSalesLoad(source, err)
	if err != nil {
		logger.Error("falha ao carregar vendas", zap.String("source", source), zap.Error(err))
		return nil, err
	}

	if !table.Columns.Has(domain.ColDate) {
		l.synthesizeDate(table)
		// the source could not see a date column, so date predicates only
		// apply now
		if !filters.IsEmpty() {
			table = query.ApplyFilters(table, *filters)
		}
	}

	logger.Debug("vendas carregadas",
		zap.String("source", source),
		zap.Int("rows", table.Len()),
		zap.Bool("filtered", !filters.IsEmpty()),
		zap.Duration("elapsed", timer.Elapsed()))

	return table, nil
}

// synthesizeDate stamps every row with the load day (midnight UTC) when the
// source has no date column.
func (l *Loader) synthesizeDate(table *domain.SalesTable) {
	y, m, d := l.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for i := range table.Rows {
		table.Rows[i].Date = today
	}
	table.Columns[domain.ColDate] = true
	table.SyntheticDate = true
}
