package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

func TestParser_ParseFile(t *testing.T) {
	csvData := "order_id,region,product,quantity,unit_price,date\n" +
		"1,Sul,A,2,10.0,2024-01-15\n" +
		"2,Norte,B,1,5,2024-01-16\n" +
		"3,,C,3,\"2,5\",2024-01-17\n"

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			parser := NewParser(2, workers)
			result, err := parser.ParseFile(context.Background(), strings.NewReader(csvData))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := []domain.SalesRow{
				{OrderID: 1, Region: "Sul", Product: "A", Quantity: 2, UnitPrice: 10, Total: 20, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
				{OrderID: 2, Region: "Norte", Product: "B", Quantity: 1, UnitPrice: 5, Total: 5, Date: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
				{OrderID: 3, Region: "", Product: "C", Quantity: 3, UnitPrice: 2.5, Total: 7.5, Date: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)},
			}
			if diff := cmp.Diff(want, result.Table.Rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
			if len(result.Errors) != 0 {
				t.Errorf("unexpected malformed rows: %v", result.Errors)
			}
			if !result.Table.Columns.Has(domain.ColTotal) {
				t.Error("expected derived total column")
			}
		})
	}
}

func TestParser_TotalFromSourceIsKept(t *testing.T) {
	csvData := "product,quantity,unit_price,total\nA,2,10,18\nB,1,5,\n"

	result, err := NewParser(10, 2).ParseFile(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Table.Rows[0].Total; got != 18 {
		t.Errorf("Total = %v, want 18 from source", got)
	}
	if got := result.Table.Rows[1].Total; got != 5 {
		t.Errorf("Total = %v, want derived 5", got)
	}
}

func TestParser_MalformedRowsAreExcluded(t *testing.T) {
	csvData := "order_id,product,quantity,unit_price,date\n" +
		"1,A,2,10,2024-01-01\n" +
		"2,B,dois,10,2024-01-01\n" +
		"3,C,1,abc,2024-01-01\n" +
		"4,D,1,1,not-a-date\n" +
		"5,E,-1,1,2024-01-01\n"

	result, err := NewParser(10, 3).ParseFile(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []int64
	for _, r := range result.Table.Rows {
		ids = append(ids, r.OrderID)
	}
	if diff := cmp.Diff([]int64{1, 4}, ids); diff != "" {
		t.Errorf("kept rows mismatch (-want +got):\n%s", diff)
	}
	if !result.Table.Rows[1].Date.IsZero() {
		t.Errorf("expected unparseable date to be treated as missing")
	}

	var lines []int
	for _, e := range result.Errors {
		lines = append(lines, e.Line)
	}
	if diff := cmp.Diff([]int{3, 4, 6}, lines); diff != "" {
		t.Errorf("malformed lines mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_SemicolonAndHeaderCase(t *testing.T) {
	csvData := "Product;Quantity;Unit_Price\nA;2;1,5\n"

	result, err := NewParser(10, 1).ParseFile(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Table.Rows) != 1 || result.Table.Rows[0].Total != 3 {
		t.Fatalf("unexpected rows: %+v", result.Table.Rows)
	}
	if result.Table.Columns.Has(domain.ColDate) || result.Table.Columns.Has(domain.ColRegion) {
		t.Errorf("absent columns reported as present: %v", result.Table.Columns)
	}
}

func TestParser_EmptyFile(t *testing.T) {
	_, err := NewParser(10, 1).ParseFile(context.Background(), strings.NewReader(""))
	if err != ErrEmptyFile {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestParser_PreservesOrderAcrossWorkers(t *testing.T) {
	csvData := generateTestCSV(5000)

	result, err := NewParser(64, 8).ParseFile(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Table.Rows) != 5000 {
		t.Fatalf("got %d rows", len(result.Table.Rows))
	}
	for i, r := range result.Table.Rows {
		if r.OrderID != int64(i+1) {
			t.Fatalf("row %d has order_id %d", i, r.OrderID)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-05":          time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"2024-03-05 10:11:12": time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC),
		"05/03/2024":          time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"":                    {},
		"ontem":               {},
	}
	for in, want := range cases {
		if got := ParseDate(in); !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func BenchmarkParser(b *testing.B) {

	csvData := generateTestCSV(100000)

	benchmarks := []struct {
		name      string
		batchSize int
		workers   int
	}{
		{"SingleWorker", 1000, 1},
		{"FourWorkers", 1000, 4},
		{"EightWorkers", 1000, 8},
		{"LargeBatch", 10000, 4},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			parser := NewParser(bm.batchSize, bm.workers)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				reader := bytes.NewReader([]byte(csvData))
				ctx := context.Background()

				_, err := parser.ParseFile(ctx, reader)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func generateTestCSV(lines int) string {
	var sb strings.Builder
	sb.WriteString("order_id,region,product,quantity,unit_price,date\n")

	products := []string{"Notebook", "Mouse", "Teclado", "Monitor"}
	regions := []string{"Sul", "Sudeste", "Norte", "Nordeste"}

	for i := 0; i < lines; i++ {
		sb.WriteString(fmt.Sprintf(
			"%d,%s,%s,%d,%.2f,2024-01-%02d\n",
			i+1, regions[i%len(regions)], products[i%len(products)], 1+i%10, float64(20+i%30), 1+i%28,
		))
	}

	return sb.String()
}
