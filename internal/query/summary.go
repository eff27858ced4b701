package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const TopProductsLimit = 5

// Summarize computes the rollup statistics for table. It never fails: empty
// tables and tables without quantity or unit_price yield the zero summary,
// with a warning explaining the fallback when the schema was the cause.
func Summarize(table *domain.SalesTable) domain.SummaryResult {
	if table == nil || len(table.Rows) == 0 {
		return domain.EmptySummary()
	}

	var missing []string
	for _, col := range []string{domain.ColQuantity, domain.ColUnitPrice} {
		if !table.Columns.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return domain.EmptySummary(fmt.Sprintf("colunas obrigatórias ausentes: %s", strings.Join(missing, ", ")))
	}

	deriveTotal := !table.Columns.Has(domain.ColTotal)

	var (
		revenue  float64
		quantity int64
		warnings []string
	)
	for _, row := range table.Rows {
		revenue += rowTotal(row, deriveTotal)
		quantity += row.Quantity
	}

	count := len(table.Rows)
	result := domain.SummaryResult{
		TotalRevenue:  revenue,
		TotalQuantity: quantity,
		SalesCount:    count,
		AvgTicket:     safeDiv(revenue, float64(count)),
		AvgQuantity:   safeDiv(float64(quantity), float64(count)),
		TopProducts:   []string{},
		Regions:       []string{},
	}

	if table.Columns.Has(domain.ColProduct) {
		ranked := rankProducts(table.Rows, deriveTotal)
		result.UniqueProducts = len(ranked)
		for i := 0; i < len(ranked) && i < TopProductsLimit; i++ {
			result.TopProducts = append(result.TopProducts, ranked[i].name)
		}
	}

	if table.Columns.Has(domain.ColRegion) {
		result.Regions = distinctRegions(table.Rows)
	}

	if table.SyntheticDate {
		warnings = append(warnings, "coluna date ausente: datas atribuídas no carregamento")
	}
	if table.Columns.Has(domain.ColDate) {
		start, end, invalid := dateSpan(table.Rows)
		result.StartDate, result.EndDate = start, end
		if invalid > 0 {
			warnings = append(warnings, fmt.Sprintf("%d linha(s) sem data válida ignoradas no período", invalid))
		}
	} else {
		warnings = append(warnings, "coluna date ausente: período indisponível")
	}

	result.Warnings = warnings
	return result
}

func rowTotal(row domain.SalesRow, derive bool) float64 {
	if derive {
		return float64(row.Quantity) * row.UnitPrice
	}
	return row.Total
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

type productGroup struct {
	name  string
	total float64
}

// rankProducts groups by product and orders by summed total, descending.
// Ties keep the order in which products were first seen.
func rankProducts(rows []domain.SalesRow, deriveTotal bool) []productGroup {
	index := make(map[string]int)
	var groups []productGroup

	for _, row := range rows {
		if row.Product == "" {
			continue
		}
		i, ok := index[row.Product]
		if !ok {
			i = len(groups)
			index[row.Product] = i
			groups = append(groups, productGroup{name: row.Product})
		}
		groups[i].total += rowTotal(row, deriveTotal)
	}

	slices.SortStableFunc(groups, func(a, b productGroup) int {
		return cmp.Compare(b.total, a.total)
	})
	return groups
}

func distinctRegions(rows []domain.SalesRow) []string {
	seen := make(map[string]bool)
	regions := []string{}
	for _, row := range rows {
		if row.Region == "" || seen[row.Region] {
			continue
		}
		seen[row.Region] = true
		regions = append(regions, row.Region)
	}
	slices.Sort(regions)
	return regions
}

func dateSpan(rows []domain.SalesRow) (*string, *string, int) {
	var (
		first, last time.Time
		invalid     int
	)
	for _, row := range rows {
		if row.Date.IsZero() {
			invalid++
			continue
		}
		if first.IsZero() || row.Date.Before(first) {
			first = row.Date
		}
		if last.IsZero() || row.Date.After(last) {
			last = row.Date
		}
	}
	if first.IsZero() {
		return nil, nil, invalid
	}
	start := first.Format(domain.DateLayout)
	end := last.Format(domain.DateLayout)
	return &start, &end, invalid
}
