package query

import (
	"slices"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

// Paginate returns the rows in [offset, offset+limit) and the row count before
// windowing. An offset past the end yields an empty table.
func Paginate(table *domain.SalesTable, page domain.PageSpec) (*domain.SalesTable, int) {
	if table == nil {
		return domain.NewSalesTable(nil, []domain.SalesRow{}), 0
	}

	total := len(table.Rows)
	offset := max(page.Offset, 0)
	if offset >= total {
		return table.WithRows([]domain.SalesRow{}), total
	}

	end := total
	if page.Limit != nil {
		end = min(offset+max(*page.Limit, 0), total)
	}

	return table.WithRows(slices.Clone(table.Rows[offset:end])), total
}

// TotalPages is ceil(totalCount / pageSize).
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Run applies filter, sort and paginate in that fixed order and returns the
// page along with the filtered row count.
func Run(table *domain.SalesTable, filters domain.FilterSpec, sort domain.SortSpec, page domain.PageSpec) (*domain.SalesTable, int) {
	filtered := ApplyFilters(table, filters)
	sorted := Sort(filtered, sort)
	return Paginate(sorted, page)
}
