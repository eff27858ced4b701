package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

func TestBuildSalesQuery_NoFilters(t *testing.T) {
	for _, f := range []*domain.FilterSpec{nil, {}, {Product: "Todos os produtos"}} {
		query, args := buildSalesQuery(f)
		if strings.Contains(query, "WHERE") {
			t.Errorf("unexpected WHERE clause for %+v", f)
		}
		if len(args) != 0 {
			t.Errorf("unexpected args %v", args)
		}
	}
}

func TestBuildSalesQuery_Parameterized(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
	minQ := int64(2)
	maxP := 9.5

	query, args := buildSalesQuery(&domain.FilterSpec{
		DateFrom:    &from,
		DateTo:      &to,
		Product:     " A'; DROP TABLE sales; -- ",
		MinQuantity: &minQ,
		MaxPrice:    &maxP,
	})

	wantWhere := "WHERE date >= $1 AND date < $2 AND product = $3 AND quantity >= $4 AND unit_price <= $5"
	if !strings.Contains(query, wantWhere) {
		t.Errorf("query missing %q:\n%s", wantWhere, query)
	}
	if strings.Contains(query, "DROP") {
		t.Error("filter value leaked into SQL text")
	}

	want := []interface{}{
		from,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"A'; DROP TABLE sales; --",
		int64(2),
		9.5,
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	missing := &pgconn.PgError{Code: undefinedTable, Message: `relation "sales" does not exist`}
	if err := classify(missing); !errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Errorf("missing table should be unavailable, got %v", err)
	}

	syntax := &pgconn.PgError{Code: "42601"}
	if err := classify(syntax); errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Errorf("syntax error should not be unavailable")
	}

	if err := classify(errors.New("dial tcp: connection refused")); !errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Errorf("connection failure should be unavailable, got %v", err)
	}

	if err := classify(context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Errorf("cancellation should pass through, got %v", err)
	}
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL não definido")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("erro ao conectar: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &DB{pool: pool}
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(context.Background(), "TRUNCATE sales"); err != nil {
		t.Fatal(err)
	}
	return pool
}

func TestSalesRepository_ReadIntegration(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO sales (order_id, region, product, quantity, unit_price, total, date) VALUES
		(1, 'Sul', 'A', 2, 10, NULL, '2024-01-01'),
		(2, NULL, 'B', 1, 5, 5, '2024-01-31'),
		(3, 'Norte', 'A', 4, 10, 40, NULL)`)
	if err != nil {
		t.Fatal(err)
	}

	repo := NewSalesRepository(pool)
	table, err := repo.Read(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 3 {
		t.Fatalf("got %d rows", table.Len())
	}
	// NULL dates sort last, then newest first
	if table.Rows[0].OrderID != 2 || table.Rows[2].OrderID != 3 {
		t.Errorf("unexpected order: %+v", table.Rows)
	}
	if table.Rows[1].Total != 20 {
		t.Errorf("expected derived total 20, got %v", table.Rows[1].Total)
	}

	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	filtered, err := repo.Read(ctx, &domain.FilterSpec{DateTo: &to, Product: "B"})
	if err != nil {
		t.Fatal(err)
	}
	if filtered.Len() != 1 || filtered.Rows[0].OrderID != 2 {
		t.Errorf("filtered rows = %+v", filtered.Rows)
	}
}
