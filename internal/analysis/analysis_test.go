package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const eps = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func table(rows ...domain.SalesRow) *domain.SalesTable {
	cols := domain.NewColumnSet(domain.ColProduct, domain.ColQuantity, domain.ColUnitPrice, domain.ColTotal)
	return domain.NewSalesTable(cols, rows)
}

// rows with total = 1 + 2*quantity + 3*unit_price exactly
func linearTable() *domain.SalesTable {
	var rows []domain.SalesRow
	for _, qp := range [][2]float64{{1, 1}, {2, 5}, {3, 2}, {4, 7}, {5, 3}, {6, 11}} {
		rows = append(rows, domain.SalesRow{
			Quantity:  int64(qp[0]),
			UnitPrice: qp[1],
			Total:     1 + 2*qp[0] + 3*qp[1],
		})
	}
	return table(rows...)
}

func TestPearson(t *testing.T) {
	perfect := table(
		domain.SalesRow{Quantity: 1, UnitPrice: 2},
		domain.SalesRow{Quantity: 2, UnitPrice: 4},
		domain.SalesRow{Quantity: 3, UnitPrice: 6},
	)
	got := Pearson(perfect)
	if !near(got.PearsonR, 1) || got.PValue > 1e-6 {
		t.Errorf("perfect correlation = %+v", got)
	}

	// r = 0.8 over 5 points: t = 0.8*sqrt(3/0.36) = 2.3094, two-sided p ~ 0.1041
	mixed := table(
		domain.SalesRow{Quantity: 1, UnitPrice: 2},
		domain.SalesRow{Quantity: 2, UnitPrice: 1},
		domain.SalesRow{Quantity: 3, UnitPrice: 4},
		domain.SalesRow{Quantity: 4, UnitPrice: 3},
		domain.SalesRow{Quantity: 5, UnitPrice: 5},
	)
	got = Pearson(mixed)
	if !near(got.PearsonR, 0.8) {
		t.Errorf("r = %v, want 0.8", got.PearsonR)
	}
	if math.Abs(got.PValue-0.1041) > 1e-3 {
		t.Errorf("p = %v, want ~0.1041", got.PValue)
	}
}

func TestPearson_Degenerate(t *testing.T) {
	want := domain.PearsonResult{PearsonR: 0, PValue: 1}

	cases := map[string]*domain.SalesTable{
		"nil":      nil,
		"one row":  table(domain.SalesRow{Quantity: 1, UnitPrice: 1}),
		"constant": table(domain.SalesRow{Quantity: 1, UnitPrice: 1}, domain.SalesRow{Quantity: 1, UnitPrice: 2}),
		"no price column": domain.NewSalesTable(domain.NewColumnSet(domain.ColQuantity), []domain.SalesRow{
			{Quantity: 1}, {Quantity: 2},
		}),
	}
	for name, tbl := range cases {
		t.Run(name, func(t *testing.T) {
			if got := Pearson(tbl); got != want {
				t.Errorf("Pearson() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestOLS_RecoversCoefficients(t *testing.T) {
	got, err := OLS(linearTable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(got.Params[ParamConst], 1) || !near(got.Params[ParamQuantity], 2) || !near(got.Params[ParamUnitPrice], 3) {
		t.Errorf("params = %v", got.Params)
	}
	if !near(got.R2, 1) {
		t.Errorf("r2 = %v, want 1", got.R2)
	}
}

func TestOLS_InsufficientData(t *testing.T) {
	_, err := OLS(table(domain.SalesRow{Quantity: 1, UnitPrice: 1, Total: 1}))
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	// unit_price is a multiple of quantity: collinear design
	collinear := table(
		domain.SalesRow{Quantity: 1, UnitPrice: 2, Total: 2},
		domain.SalesRow{Quantity: 2, UnitPrice: 4, Total: 8},
		domain.SalesRow{Quantity: 3, UnitPrice: 6, Total: 18},
	)
	if _, err := OLS(collinear); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for singular design, got %v", err)
	}
}

func TestSimpleRegression(t *testing.T) {
	tbl := table(
		domain.SalesRow{Quantity: 1, Total: 12},
		domain.SalesRow{Quantity: 2, Total: 14},
		domain.SalesRow{Quantity: 3, Total: 16},
	)
	got, err := SimpleRegression(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if !near(got.Coef, 2) || !near(got.Intercept, 10) || !near(got.Score, 1) {
		t.Errorf("regression = %+v", got)
	}
	if !near(got.MeanQuantity, 2) || !near(got.PredictedTotal, 14) {
		t.Errorf("mean/prediction = %v/%v", got.MeanQuantity, got.PredictedTotal)
	}

	if _, err := SimpleRegression(table(domain.SalesRow{Quantity: 1}, domain.SalesRow{Quantity: 1})); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for constant quantity, got %v", err)
	}
}

func TestModelHolder(t *testing.T) {
	h := NewModelHolder()

	if _, err := h.Predict(1, 1); !errors.Is(err, domain.ErrModelNotTrained) {
		t.Fatalf("expected ErrModelNotTrained, got %v", err)
	}

	res, err := h.Train(linearTable())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Coef) != 2 || !near(res.Coef[0], 2) || !near(res.Coef[1], 3) || !near(res.Intercept, 1) {
		t.Errorf("train result = %+v", res)
	}
	if !h.Trained() {
		t.Error("expected trained holder")
	}

	y, err := h.Predict(10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !near(y, 27) {
		t.Errorf("Predict(10, 2) = %v, want 27", y)
	}

	// a failed retrain keeps the previous model
	if _, err := h.Train(table()); err == nil {
		t.Fatal("expected training error on empty table")
	}
	if y2, _ := h.Predict(10, 2); !near(y2, 27) {
		t.Errorf("model changed after failed training: %v", y2)
	}

	h.Reset()
	if h.Trained() {
		t.Error("expected untrained after Reset")
	}
}
