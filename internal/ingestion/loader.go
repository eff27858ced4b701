package ingestion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

// salesColumns is the COPY column order; salesSource.Values must match it.
var salesColumns = []string{
	domain.ColOrderID,
	domain.ColRegion,
	domain.ColProduct,
	domain.ColQuantity,
	domain.ColUnitPrice,
	domain.ColTotal,
	domain.ColDate,
}

type BulkLoader struct {
	pool      *pgxpool.Pool
	batchSize int
}

func NewBulkLoader(pool *pgxpool.Pool, batchSize int) *BulkLoader {
	if batchSize <= 0 {
		batchSize = 10000
	}
	return &BulkLoader{
		pool:      pool,
		batchSize: batchSize,
	}
}

// LoadSales copies rows into the sales table inside a single transaction.
func (l *BulkLoader) LoadSales(ctx context.Context, rows []domain.SalesRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"sales"},
		salesColumns,
		newSalesSource(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("erro no COPY: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("erro no commit: %w", err)
	}

	return copyCount, nil
}

// LoadSalesConcurrent splits rows into batchSize chunks and copies them in
// parallel. Each chunk commits on its own.
func (l *BulkLoader) LoadSalesConcurrent(ctx context.Context, rows []domain.SalesRow) (int64, error) {
	chunks := splitIntoChunks(rows, l.batchSize)
	counts := make([]int64, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, chunk := range chunks {
		g.Go(func() error {
			n, err := l.LoadSales(gctx, chunk)
			counts[i] = n
			return err
		})
	}
	err := g.Wait()

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, err
}

type salesSource struct {
	rows  []domain.SalesRow
	index int
}

func newSalesSource(rows []domain.SalesRow) *salesSource {
	return &salesSource{rows: rows}
}

func (s *salesSource) Next() bool {
	s.index++
	return s.index <= len(s.rows)
}

func (s *salesSource) Values() ([]interface{}, error) {
	if s.index > len(s.rows) {
		return nil, nil
	}

	row := s.rows[s.index-1]
	var date interface{}
	if !row.Date.IsZero() {
		date = row.Date
	}
	return []interface{}{
		row.OrderID,
		row.Region,
		row.Product,
		row.Quantity,
		row.UnitPrice,
		row.Total,
		date,
	}, nil
}

func (s *salesSource) Err() error {
	return nil
}

func splitIntoChunks(rows []domain.SalesRow, size int) [][]domain.SalesRow {
	var chunks [][]domain.SalesRow

	for i := 0; i < len(rows); i += size {
		end := min(i+size, len(rows))
		chunks = append(chunks, rows[i:end])
	}

	return chunks
}
