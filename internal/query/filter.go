// Package query holds the in-memory sales pipeline: filter, sort, paginate and
// the rollups computed over whatever subset survives.
package query

import (
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

// ApplyFilters returns a new table with the rows that satisfy every predicate
// in f. Predicates on columns the table does not have are skipped.
func ApplyFilters(table *domain.SalesTable, f domain.FilterSpec) *domain.SalesTable {
	if table == nil {
		return domain.NewSalesTable(nil, []domain.SalesRow{})
	}

	f = f.Normalized()
	preds := predicates(table.Columns, f)

	rows := make([]domain.SalesRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		if matchesAll(row, preds) {
			rows = append(rows, row)
		}
	}

	return table.WithRows(rows)
}

type predicate func(domain.SalesRow) bool

func matchesAll(row domain.SalesRow, preds []predicate) bool {
	for _, p := range preds {
		if !p(row) {
			return false
		}
	}
	return true
}

func predicates(cols domain.ColumnSet, f domain.FilterSpec) []predicate {
	var preds []predicate

	if cols.Has(domain.ColDate) {
		if f.DateFrom != nil {
			from := *f.DateFrom
			preds = append(preds, func(r domain.SalesRow) bool {
				return !r.Date.IsZero() && !r.Date.Before(from)
			})
		}
		if until := f.DateToExclusive(); until != nil {
			end := *until
			preds = append(preds, func(r domain.SalesRow) bool {
				return !r.Date.IsZero() && r.Date.Before(end)
			})
		}
	}

	if f.Product != "" && cols.Has(domain.ColProduct) {
		product := f.Product
		preds = append(preds, func(r domain.SalesRow) bool { return r.Product == product })
	}

	if f.Region != "" && cols.Has(domain.ColRegion) {
		region := f.Region
		preds = append(preds, func(r domain.SalesRow) bool { return r.Region == region })
	}

	if cols.Has(domain.ColQuantity) {
		if f.MinQuantity != nil {
			lo := *f.MinQuantity
			preds = append(preds, func(r domain.SalesRow) bool { return r.Quantity >= lo })
		}
		if f.MaxQuantity != nil {
			hi := *f.MaxQuantity
			preds = append(preds, func(r domain.SalesRow) bool { return r.Quantity <= hi })
		}
	}

	if cols.Has(domain.ColUnitPrice) {
		if f.MinPrice != nil {
			lo := *f.MinPrice
			preds = append(preds, func(r domain.SalesRow) bool { return r.UnitPrice >= lo })
		}
		if f.MaxPrice != nil {
			hi := *f.MaxPrice
			preds = append(preds, func(r domain.SalesRow) bool { return r.UnitPrice <= hi })
		}
	}

	return preds
}
