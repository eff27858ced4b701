package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jeovahfialho/sales-analyzer/internal/config"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Querier is the subset of pgxpool.Pool used to read sales.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type SalesRepository struct {
	db Querier
}

func NewSalesRepository(db Querier) *SalesRepository {
	return &SalesRepository{db: db}
}

// Name identifies the source in metrics and errors.
func (r *SalesRepository) Name() string {
	return config.SourcePostgres
}

// Read returns the rows of the sales table matching filters. Predicates are
// evaluated by the database.
func (r *SalesRepository) Read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	timer := metrics.NewTimer()
	query, args := buildSalesQuery(filters)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDatabaseQuery("sales_read", "error", timer.Elapsed().Seconds())
		return nil, classify(err)
	}
	defer rows.Close()

	var result []domain.SalesRow
	for rows.Next() {
		var (
			row     domain.SalesRow
			orderID *int64
			region  *string
			product *string
			date    *time.Time
		)
		if err := rows.Scan(&orderID, &region, &product, &row.Quantity, &row.UnitPrice, &row.Total, &date); err != nil {
			metrics.RecordDatabaseQuery("sales_read", "error", timer.Elapsed().Seconds())
			return nil, fmt.Errorf("erro ao escanear venda: %w", err)
		}
		if orderID != nil {
			row.OrderID = *orderID
		}
		if region != nil {
			row.Region = *region
		}
		if product != nil {
			row.Product = *product
		}
		if date != nil {
			row.Date = *date
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDatabaseQuery("sales_read", "error", timer.Elapsed().Seconds())
		return nil, classify(err)
	}

	metrics.RecordDatabaseQuery("sales_read", "success", timer.Elapsed().Seconds())
	return domain.NewSalesTable(domain.NewColumnSet(domain.AllColumns...), result), nil
}

func buildSalesQuery(filters *domain.FilterSpec) (string, []interface{}) {
	query := `
		SELECT
			order_id,
			region,
			product,
			COALESCE(quantity, 0)::bigint,
			COALESCE(unit_price, 0)::float8,
			COALESCE(total, COALESCE(quantity, 0) * COALESCE(unit_price, 0))::float8,
			date
		FROM sales
	`

	var where []string
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filters != nil {
		f := filters.Normalized()
		if f.DateFrom != nil {
			add("date >= $%d", *f.DateFrom)
		}
		if to := f.DateToExclusive(); to != nil {
			add("date < $%d", *to)
		}
		if f.Product != "" {
			add("product = $%d", f.Product)
		}
		if f.Region != "" {
			add("region = $%d", f.Region)
		}
		if f.MinQuantity != nil {
			add("quantity >= $%d", *f.MinQuantity)
		}
		if f.MaxQuantity != nil {
			add("quantity <= $%d", *f.MaxQuantity)
		}
		if f.MinPrice != nil {
			add("unit_price >= $%d", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			add("unit_price <= $%d", *f.MaxPrice)
		}
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC NULLS LAST, order_id"

	return query, args
}

// classify maps connectivity failures and a missing table to
// domain.ErrDataSourceUnavailable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == undefinedTable {
			return domain.Unavailable(config.SourcePostgres, err)
		}
		return fmt.Errorf("erro ao consultar vendas: %w", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.Unavailable(config.SourcePostgres, err)
}
