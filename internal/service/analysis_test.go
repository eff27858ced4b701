package service

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeovahfialho/sales-analyzer/internal/analysis"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/ingestion"
)

func TestStatsService_PredictTrainsOnDemand(t *testing.T) {
	src := &fakeSource{table: sampleTable()}
	svc := NewStatsService(NewLoader(src, nil, time.Minute), nil)
	ctx := context.Background()

	pred, err := svc.Predict(ctx, domain.PredictRequest{Quantity: 2, UnitPrice: 10})
	if err != nil {
		t.Fatal(err)
	}

	train, err := svc.Train(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := train.Intercept + train.Coef[0]*2 + train.Coef[1]*10
	if math.Abs(pred.YPred-want) > 1e-6 {
		t.Errorf("prediction %v, want %v", pred.YPred, want)
	}
}

func TestStatsService_ResetModel(t *testing.T) {
	holder := analysis.NewModelHolder()
	svc := NewStatsService(NewLoader(&fakeSource{table: sampleTable()}, nil, time.Minute), holder)

	if _, err := svc.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !holder.Trained() {
		t.Fatal("expected trained model")
	}
	svc.ResetModel()
	if holder.Trained() {
		t.Error("expected untrained model after ResetModel")
	}
}

func TestStatsService_InsufficientData(t *testing.T) {
	table := domain.NewSalesTable(domain.NewColumnSet(domain.AllColumns...), sampleTable().Rows[:2])
	svc := NewStatsService(NewLoader(&fakeSource{table: table}, nil, time.Minute), nil)
	ctx := context.Background()

	if _, err := svc.OLS(ctx); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("OLS err = %v", err)
	}
	if _, err := svc.Predict(ctx, domain.PredictRequest{Quantity: 1, UnitPrice: 1}); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("Predict err = %v", err)
	}

	pearson, err := svc.Pearson(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if pearson.PValue < 0 || pearson.PValue > 1 {
		t.Errorf("pearson = %+v", pearson)
	}
}

func TestChartService_RenderAll(t *testing.T) {
	svc := NewChartService(NewLoader(&fakeSource{table: sampleTable()}, nil, time.Minute))

	images, err := svc.RenderAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{ChartRevenueByProduct, ChartQuantityVsPrice} {
		if len(images[name]) == 0 {
			t.Errorf("chart %s missing", name)
		}
	}
	if svc.Known("pie") {
		t.Error("unknown chart reported as known")
	}
	if _, err := svc.Render(context.Background(), "pie"); !errors.Is(err, domain.ErrNoData) {
		t.Errorf("Render(pie) err = %v", err)
	}
}

func TestChartService_RenderAllEmptyTable(t *testing.T) {
	empty := domain.NewSalesTable(domain.NewColumnSet(domain.AllColumns...), nil)
	svc := NewChartService(NewLoader(&fakeSource{table: empty}, nil, time.Minute))

	images, err := svc.RenderAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 0 {
		t.Errorf("got %d images for an empty table", len(images))
	}
}

type countingSink struct {
	rows int64
}

func (s *countingSink) LoadSalesConcurrent(ctx context.Context, rows []domain.SalesRow) (int64, error) {
	s.rows += int64(len(rows))
	return int64(len(rows)), nil
}

func TestIngestionService_ProcessFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	if err := os.WriteFile(good, []byte("product,quantity,unit_price\nA,1,2\nB,2,3\nC,x,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.csv")

	sink := &countingSink{}
	svc := NewIngestionService(ingestion.NewParser(100, 2), sink, 1)

	results, err := svc.ProcessFiles(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].FilePath != good || results[1].FilePath != missing {
		t.Fatalf("results = %+v", results)
	}
	if results[0].RecordsCount != 2 || results[0].Malformed != 1 || results[0].Error != "" {
		t.Errorf("good result = %+v", results[0])
	}
	if results[1].Error == "" {
		t.Error("missing file should fail")
	}

	loaded, failed := Summarize(results)
	if loaded != 2 || failed != 1 || sink.rows != 2 {
		t.Errorf("loaded=%d failed=%d sink=%d", loaded, failed, sink.rows)
	}

	if _, err := svc.ProcessFile(context.Background(), missing); err == nil {
		t.Error("ProcessFile on missing file should fail")
	}
}
