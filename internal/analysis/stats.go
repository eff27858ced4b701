// Package analysis fits the statistical models served by the API: Pearson
// correlation, ordinary least squares and the linear model used for prediction.
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

// Parameter names reported by OLS.
const (
	ParamConst     = "const"
	ParamQuantity  = "quantity"
	ParamUnitPrice = "unit_price"
)

func columns(table *domain.SalesTable) (qty, price, total []float64) {
	n := table.Len()
	qty = make([]float64, n)
	price = make([]float64, n)
	total = make([]float64, n)
	derive := !table.Columns.Has(domain.ColTotal)
	for i, r := range table.Rows {
		qty[i] = float64(r.Quantity)
		price[i] = r.UnitPrice
		total[i] = r.Total
		if derive {
			total[i] = qty[i] * price[i]
		}
	}
	return qty, price, total
}

func hasColumns(table *domain.SalesTable, cols ...string) bool {
	if table == nil {
		return false
	}
	for _, c := range cols {
		if !table.Columns.Has(c) {
			return false
		}
	}
	return true
}

// Pearson correlates quantity with unit_price and returns the two-sided
// p-value. Fewer than two rows or constant input yield r=0, p=1.
func Pearson(table *domain.SalesTable) domain.PearsonResult {
	none := domain.PearsonResult{PearsonR: 0, PValue: 1}
	if table.Len() < 2 || !hasColumns(table, domain.ColQuantity, domain.ColUnitPrice) {
		return none
	}

	qty, price, _ := columns(table)
	r := stat.Correlation(qty, price, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return none
	}
	r = math.Max(-1, math.Min(1, r))

	return domain.PearsonResult{PearsonR: r, PValue: pearsonPValue(r, len(qty))}
}

func pearsonPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

// maxCondition is the largest design condition number accepted by FitTotal.
const maxCondition = 1e12

// Fit is a least-squares fit of total ~ const + quantity + unit_price.
type Fit struct {
	Intercept float64
	Coef      [2]float64
	R2        float64
}

func (f Fit) Predict(quantity, unitPrice float64) float64 {
	return f.Intercept + f.Coef[0]*quantity + f.Coef[1]*unitPrice
}

// FitTotal solves the least-squares problem for total against quantity and
// unit_price. It needs at least three rows and a non-singular design.
func FitTotal(table *domain.SalesTable) (Fit, error) {
	n := table.Len()
	if n < 3 || !hasColumns(table, domain.ColQuantity, domain.ColUnitPrice) {
		return Fit{}, fmt.Errorf("%w: %d linha(s) para regressão", domain.ErrInsufficientData, n)
	}

	qty, price, total := columns(table)
	design := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, qty[i])
		design.Set(i, 2, price[i])
	}
	y := mat.NewVecDense(n, total)

	if c := mat.Cond(design, 2); math.IsInf(c, 1) || math.IsNaN(c) || c > maxCondition {
		return Fit{}, fmt.Errorf("%w: matriz de regressão singular", domain.ErrInsufficientData)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, y); err != nil {
		return Fit{}, fmt.Errorf("%w: matriz de regressão singular", domain.ErrInsufficientData)
	}

	fit := Fit{
		Intercept: beta.AtVec(0),
		Coef:      [2]float64{beta.AtVec(1), beta.AtVec(2)},
	}

	predicted := make([]float64, n)
	for i := range predicted {
		predicted[i] = fit.Predict(qty[i], price[i])
	}
	fit.R2 = rSquared(total, predicted)
	return fit, nil
}

func rSquared(observed, predicted []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssRes, ssTot float64
	for i := range observed {
		ssRes += (observed[i] - predicted[i]) * (observed[i] - predicted[i])
		ssTot += (observed[i] - mean) * (observed[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func OLS(table *domain.SalesTable) (*domain.OLSResult, error) {
	fit, err := FitTotal(table)
	if err != nil {
		return nil, err
	}
	return &domain.OLSResult{
		Params: map[string]float64{
			ParamConst:     fit.Intercept,
			ParamQuantity:  fit.Coef[0],
			ParamUnitPrice: fit.Coef[1],
		},
		R2: fit.R2,
	}, nil
}

// SimpleRegression fits total ~ quantity and predicts the total at the mean
// quantity.
func SimpleRegression(table *domain.SalesTable) (*domain.RegressionResult, error) {
	n := table.Len()
	if n < 2 || !hasColumns(table, domain.ColQuantity) {
		return nil, fmt.Errorf("%w: %d linha(s) para regressão", domain.ErrInsufficientData, n)
	}

	qty, _, total := columns(table)
	if stat.Variance(qty, nil) == 0 {
		return nil, fmt.Errorf("%w: quantidade constante", domain.ErrInsufficientData)
	}

	alpha, beta := stat.LinearRegression(qty, total, nil, false)
	mean := stat.Mean(qty, nil)

	score := stat.RSquared(qty, total, nil, alpha, beta)
	if math.IsNaN(score) {
		score = 0
	}

	return &domain.RegressionResult{
		Coef:           beta,
		Intercept:      alpha,
		Score:          score,
		MeanQuantity:   mean,
		PredictedTotal: alpha + beta*mean,
	}, nil
}
