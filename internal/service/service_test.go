package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
)

type fakeSource struct {
	table *domain.SalesTable
	err   error
	reads atomic.Int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error) {
	f.reads.Add(1)

	if f.err != nil {
		return nil, f.err
	}
	table := f.table.Clone()
	if !filters.IsEmpty() {
		return query.ApplyFilters(table, *filters), nil
	}
	return table, nil
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func sampleTable() *domain.SalesTable {
	return domain.NewSalesTable(domain.NewColumnSet(domain.AllColumns...), []domain.SalesRow{
		{OrderID: 1, Region: "Sul", Product: "A", Quantity: 2, UnitPrice: 10, Total: 20, Date: day("2024-01-05")},
		{OrderID: 2, Region: "Norte", Product: "B", Quantity: 1, UnitPrice: 30, Total: 30, Date: day("2024-01-20")},
		{OrderID: 3, Region: "Sul", Product: "A", Quantity: 4, UnitPrice: 11, Total: 44, Date: day("2024-02-03")},
		{OrderID: 4, Region: "Leste", Product: "C", Quantity: 3, UnitPrice: 7, Total: 21, Date: day("2024-02-10")},
		{OrderID: 5, Region: "Norte", Product: "B", Quantity: 5, UnitPrice: 29, Total: 145, Date: day("2024-03-01")},
	})
}

func orderIDs(rows []domain.SalesRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.OrderID
	}
	return ids
}

func TestLoader_CachesUnfilteredLoads(t *testing.T) {
	src := &fakeSource{table: sampleTable()}
	loader := NewLoader(src, nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		table, err := loader.Load(ctx, true, nil)
		if err != nil {
			t.Fatal(err)
		}
		if table.Len() != 5 {
			t.Fatalf("got %d rows", table.Len())
		}
	}
	if n := src.reads.Load(); n != 1 {
		t.Errorf("source read %d times, want 1", n)
	}
}

func TestLoader_FilteredLoadBypassesCache(t *testing.T) {
	src := &fakeSource{table: sampleTable()}
	loader := NewLoader(src, nil, time.Minute)
	ctx := context.Background()

	filters := &domain.FilterSpec{Product: "B"}
	for i := 0; i < 2; i++ {
		table, err := loader.Load(ctx, true, filters)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]int64{2, 5}, orderIDs(table.Rows)); diff != "" {
			t.Errorf("filtered rows mismatch (-want +got):\n%s", diff)
		}
	}
	if n := src.reads.Load(); n != 2 {
		t.Errorf("source read %d times, want 2", n)
	}
	if !loader.Cache().LoadedAt().IsZero() {
		t.Error("filtered load populated the cache")
	}
}

func TestLoader_SentinelProductCountsAsUnfiltered(t *testing.T) {
	src := &fakeSource{table: sampleTable()}
	loader := NewLoader(src, nil, time.Minute)

	if _, err := loader.Load(context.Background(), true, &domain.FilterSpec{Product: " Todos os Produtos "}); err != nil {
		t.Fatal(err)
	}
	if loader.Cache().LoadedAt().IsZero() {
		t.Error("sentinel product filter should be served through the cache")
	}
}

func TestLoader_RefreshStoresWithoutReadingCache(t *testing.T) {
	src := &fakeSource{table: sampleTable()}
	loader := NewLoader(src, nil, time.Minute)
	ctx := context.Background()

	if _, err := loader.Load(ctx, true, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(ctx, false, nil); err != nil {
		t.Fatal(err)
	}
	if n := src.reads.Load(); n != 2 {
		t.Errorf("source read %d times, want 2", n)
	}
	if loader.Cache().LoadedAt().IsZero() {
		t.Error("refresh did not store the table")
	}
}

func TestLoader_SynthesizesMissingDate(t *testing.T) {
	table := domain.NewSalesTable(
		domain.NewColumnSet(domain.ColProduct, domain.ColQuantity, domain.ColUnitPrice),
		[]domain.SalesRow{{Product: "A", Quantity: 1, UnitPrice: 2}, {Product: "B", Quantity: 2, UnitPrice: 3}},
	)
	loader := NewLoader(&fakeSource{table: table}, nil, time.Minute)
	loader.now = func() time.Time { return time.Date(2024, 5, 6, 15, 4, 5, 0, time.Local) }

	got, err := loader.Load(context.Background(), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Columns.Has(domain.ColDate) || !got.SyntheticDate {
		t.Fatal("date column not synthesized")
	}
	for _, r := range got.Rows {
		if r.Date.Format(domain.DateLayout) != "2024-05-06" {
			t.Errorf("row date = %v", r.Date)
		}
	}

	summary := query.Summarize(got)
	if summary.StartDate == nil || *summary.StartDate != "2024-05-06" || !summary.Degraded() {
		t.Errorf("summary = %+v", summary)
	}
}

func TestLoader_PropagatesSourceError(t *testing.T) {
	src := &fakeSource{err: domain.Unavailable("fake", errors.New("down"))}
	loader := NewLoader(src, nil, time.Minute)

	_, err := loader.Load(context.Background(), true, nil)
	if !errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if !loader.Cache().LoadedAt().IsZero() {
		t.Error("failed load populated the cache")
	}
}

func TestSalesService_Preview(t *testing.T) {
	svc := NewSalesService(NewLoader(&fakeSource{table: sampleTable()}, nil, time.Minute))

	preview, err := svc.Preview(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if preview.Rows != 5 {
		t.Errorf("rows = %d", preview.Rows)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, orderIDs(preview.Preview)); diff != "" {
		t.Errorf("preview mismatch (-want +got):\n%s", diff)
	}
}

func TestSalesService_ListSales(t *testing.T) {
	svc := NewSalesService(NewLoader(&fakeSource{table: sampleTable()}, nil, time.Minute))

	tests := []struct {
		name     string
		q        SalesQuery
		wantIDs  []int64
		wantPage domain.Pagination
	}{
		{
			name:     "first page by total desc",
			q:        SalesQuery{Sort: domain.SortSpec{Field: "total"}, Page: domain.PageFromNumber(1, 2)},
			wantIDs:  []int64{5, 3},
			wantPage: domain.Pagination{TotalItems: 5, TotalPages: 3, CurrentPage: 1, PageSize: 2},
		},
		{
			name:     "offset past the end",
			q:        SalesQuery{Page: domain.PageSpec{Offset: 20, Limit: ptr(10)}},
			wantIDs:  []int64{},
			wantPage: domain.Pagination{TotalItems: 5, TotalPages: 1, CurrentPage: 3, PageSize: 10},
		},
		{
			name:     "filtered without limit",
			q:        SalesQuery{Filters: domain.FilterSpec{Region: "Norte"}, Sort: domain.SortSpec{Field: "order_id", Direction: "asc"}},
			wantIDs:  []int64{2, 5},
			wantPage: domain.Pagination{TotalItems: 2, TotalPages: 1, CurrentPage: 1, PageSize: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListSales(context.Background(), tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.wantIDs, orderIDs(page.Data)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if page.Pagination != tt.wantPage {
				t.Errorf("pagination = %+v, want %+v", page.Pagination, tt.wantPage)
			}
		})
	}
}

func TestSalesService_SummaryAndAggregations(t *testing.T) {
	svc := NewSalesService(NewLoader(&fakeSource{table: sampleTable()}, nil, time.Minute))
	ctx := context.Background()

	summary, err := svc.Summary(ctx, &domain.FilterSpec{MinQuantity: ptr(int64(3))})
	if err != nil {
		t.Fatal(err)
	}
	if summary.SalesCount != 3 || summary.TotalRevenue != 210 || summary.TotalQuantity != 12 {
		t.Errorf("summary = %+v", summary)
	}

	if _, err := svc.ByPeriod(ctx, "fortnight", nil); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("ByPeriod err = %v", err)
	}

	top, err := svc.TopProducts(ctx, 0, query.RankByRevenue, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 || top[0].Product != "B" || top[0].Revenue != 175 {
		t.Errorf("top = %+v", top)
	}
}

func TestSalesService_CacheStats(t *testing.T) {
	svc := NewSalesService(NewLoader(&fakeSource{table: sampleTable()}, nil, time.Minute))

	if svc.CacheStats().Cached {
		t.Fatal("cache should start empty")
	}
	if _, err := svc.Table(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	stats := svc.CacheStats()
	if !stats.Cached || stats.Source != "fake" || stats.TTL != "1m0s" {
		t.Errorf("stats = %+v", stats)
	}

	svc.InvalidateCache()
	if svc.CacheStats().Cached {
		t.Error("cache not invalidated")
	}
}

func TestLoader_DateFiltersApplyToSynthesizedDate(t *testing.T) {
	table := domain.NewSalesTable(
		domain.NewColumnSet(domain.ColProduct, domain.ColQuantity, domain.ColUnitPrice, domain.ColTotal),
		[]domain.SalesRow{{Product: "A", Quantity: 1, UnitPrice: 2, Total: 2}},
	)
	loader := NewLoader(&fakeSource{table: table}, nil, time.Minute)
	loader.now = func() time.Time { return time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	tests := []struct {
		name    string
		filters domain.FilterSpec
		want    int
	}{
		{"range excludes load day", domain.FilterSpec{DateFrom: ptr(day("2020-01-01")), DateTo: ptr(day("2020-12-31"))}, 0},
		{"range covers load day", domain.FilterSpec{DateFrom: ptr(day("2024-05-01")), DateTo: ptr(day("2024-05-06"))}, 1},
		{"from after load day", domain.FilterSpec{DateFrom: ptr(day("2024-05-07"))}, 0},
	}

	full, err := loader.Load(ctx, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.Load(ctx, true, &tt.filters)
			if err != nil {
				t.Fatal(err)
			}
			if got.Len() != tt.want {
				t.Fatalf("got %d rows, want %d", got.Len(), tt.want)
			}
			if again := query.ApplyFilters(got, tt.filters); again.Len() != got.Len() {
				t.Errorf("%d of %d returned rows fail the filter", got.Len()-again.Len(), got.Len())
			}
			if again := query.ApplyFilters(full, tt.filters); again.Len() != got.Len() {
				t.Errorf("filtered load has %d rows, filtering the full load gives %d", got.Len(), again.Len())
			}
		})
	}
}
