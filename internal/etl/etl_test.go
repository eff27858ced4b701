package etl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

type staticSource struct {
	table *domain.SalesTable
	err   error
}

func (s staticSource) Read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	return s.table, s.err
}

func rawTable() *domain.SalesTable {
	cols := domain.NewColumnSet(domain.AllColumns...)
	return domain.NewSalesTable(cols, []domain.SalesRow{
		{OrderID: 1, Region: "Sul", Product: "A", Quantity: 2, UnitPrice: 10, Total: 999, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{OrderID: 2, Product: "B", Quantity: 3, UnitPrice: 1.5},
	})
}

func TestPipeline_RunAndReadBack(t *testing.T) {
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "processed", "sales.parquet")
	p := NewPipeline(staticSource{table: rawTable()}, parquetPath, filepath.Join(dir, "gold.csv"))

	res, err := p.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&domain.ETLResult{Rows: 2, Dest: parquetPath}, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	rows, err := parquet.ReadFile[record](parquetPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []record{
		{OrderID: 1, Region: "Sul", Product: "A", Quantity: 2, UnitPrice: 10, Total: 20, Date: "2024-01-02"},
		{OrderID: 2, Product: "B", Quantity: 3, UnitPrice: 1.5, Total: 4.5},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_RunSourceError(t *testing.T) {
	boom := domain.Unavailable("csv", errors.New("no file"))
	p := NewPipeline(staticSource{err: boom}, filepath.Join(t.TempDir(), "x.parquet"), "")

	if _, err := p.Run(context.Background(), ""); !errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Fatalf("expected ErrDataSourceUnavailable, got %v", err)
	}
}

func TestPipeline_ExportGold(t *testing.T) {
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "sales.parquet")
	csvPath := filepath.Join(dir, "gold", "sales_gold.csv")
	p := NewPipeline(staticSource{table: rawTable()}, parquetPath, csvPath)

	res, err := p.ExportGold(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusNoParquet || !strings.Contains(res.Message, parquetPath) {
		t.Errorf("expected no_parquet result, got %+v", res)
	}

	if _, err := p.Run(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	res, err = p.ExportGold(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusOK || res.Rows != 2 || res.CSV != csvPath {
		t.Errorf("unexpected result %+v", res)
	}

	content, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "order_id,region,product,quantity,unit_price,total,date\n" +
		"1,Sul,A,2,10,20,2024-01-02\n" +
		"2,,B,3,1.5,4.5,\n"
	if diff := cmp.Diff(want, string(content)); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}
