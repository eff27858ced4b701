package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

type rowCompare func(a, b domain.SalesRow) int

var comparators = map[string]rowCompare{
	domain.ColOrderID:   func(a, b domain.SalesRow) int { return cmp.Compare(a.OrderID, b.OrderID) },
	domain.ColRegion:    func(a, b domain.SalesRow) int { return strings.Compare(a.Region, b.Region) },
	domain.ColProduct:   func(a, b domain.SalesRow) int { return strings.Compare(a.Product, b.Product) },
	domain.ColQuantity:  func(a, b domain.SalesRow) int { return cmp.Compare(a.Quantity, b.Quantity) },
	domain.ColUnitPrice: func(a, b domain.SalesRow) int { return cmp.Compare(a.UnitPrice, b.UnitPrice) },
	domain.ColTotal:     func(a, b domain.SalesRow) int { return cmp.Compare(a.Total, b.Total) },
	domain.ColDate:      func(a, b domain.SalesRow) int { return a.Date.Compare(b.Date) },
}

// SortableField reports whether field names a column the table can be sorted by.
func SortableField(table *domain.SalesTable, field string) bool {
	_, ok := comparators[field]
	return ok && table != nil && table.Columns.Has(field)
}

// Sort returns a stably sorted copy of table. Unknown or absent fields leave
// the order unchanged.
func Sort(table *domain.SalesTable, order domain.SortSpec) *domain.SalesTable {
	if table == nil {
		return domain.NewSalesTable(nil, []domain.SalesRow{})
	}

	rows := slices.Clone(table.Rows)
	field := strings.TrimSpace(order.Field)
	if !SortableField(table, field) {
		return table.WithRows(rows)
	}

	compare := comparators[field]
	if order.Descending() {
		slices.SortStableFunc(rows, func(a, b domain.SalesRow) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(rows, compare)
	}

	return table.WithRows(rows)
}
