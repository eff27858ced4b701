package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// PeriodLabel returns the bucket label of t for the given period.
// Weeks run Monday to Sunday and are labelled "start/end".
func PeriodLabel(t time.Time, period string) (string, error) {
	switch strings.ToLower(period) {
	case PeriodDay:
		return t.Format(domain.DateLayout), nil
	case PeriodWeek:
		offset := (int(t.Weekday()) + 6) % 7
		y, m, d := t.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 6)
		return start.Format(domain.DateLayout) + "/" + end.Format(domain.DateLayout), nil
	case PeriodMonth:
		return t.Format("2006-01"), nil
	case PeriodYear:
		return t.Format("2006"), nil
	default:
		return "", fmt.Errorf("%w: %q (use day, week, month ou year)", domain.ErrInvalidPeriod, period)
	}
}

// SalesByPeriod buckets rows by period. Rows without a usable date are skipped.
func SalesByPeriod(table *domain.SalesTable, period string) ([]domain.PeriodSales, error) {
	if _, err := PeriodLabel(time.Time{}, period); err != nil {
		return nil, err
	}

	result := []domain.PeriodSales{}
	if table == nil || !table.Columns.Has(domain.ColDate) {
		return result, nil
	}

	deriveTotal := !table.Columns.Has(domain.ColTotal)
	index := make(map[string]int)

	for _, row := range table.Rows {
		if row.Date.IsZero() {
			continue
		}
		label, _ := PeriodLabel(row.Date, period)
		i, ok := index[label]
		if !ok {
			i = len(result)
			index[label] = i
			result = append(result, domain.PeriodSales{Period: label})
		}
		result[i].TotalSales += row.Quantity
		result[i].TotalRevenue += rowTotal(row, deriveTotal)
		result[i].OrderCount++
	}

	for i := range result {
		result[i].AvgTicket = safeDiv(result[i].TotalRevenue, float64(result[i].OrderCount))
	}

	slices.SortFunc(result, func(a, b domain.PeriodSales) int {
		return strings.Compare(a.Period, b.Period)
	})
	return result, nil
}

const (
	RankByRevenue  = "revenue"
	RankByQuantity = "quantity"
)

// TopProducts ranks products by revenue or quantity, descending, and returns at
// most n of them. Any value of by other than "quantity" ranks by revenue.
func TopProducts(table *domain.SalesTable, n int, by string) []domain.ProductSales {
	result := []domain.ProductSales{}
	if table == nil || n <= 0 || !table.Columns.Has(domain.ColProduct) {
		return result
	}

	deriveTotal := !table.Columns.Has(domain.ColTotal)
	index := make(map[string]int)
	priceSums := []float64{}

	for _, row := range table.Rows {
		if row.Product == "" {
			continue
		}
		i, ok := index[row.Product]
		if !ok {
			i = len(result)
			index[row.Product] = i
			result = append(result, domain.ProductSales{Product: row.Product})
			priceSums = append(priceSums, 0)
		}
		result[i].Revenue += rowTotal(row, deriveTotal)
		result[i].Quantity += row.Quantity
		result[i].OrderCount++
		priceSums[i] += row.UnitPrice
	}

	for i := range result {
		result[i].AvgPrice = safeDiv(priceSums[i], float64(result[i].OrderCount))
	}

	if strings.ToLower(by) == RankByQuantity {
		slices.SortStableFunc(result, func(a, b domain.ProductSales) int {
			return cmp.Compare(b.Quantity, a.Quantity)
		})
	} else {
		slices.SortStableFunc(result, func(a, b domain.ProductSales) int {
			return cmp.Compare(b.Revenue, a.Revenue)
		})
	}

	if len(result) > n {
		result = result[:n]
	}
	return result
}
