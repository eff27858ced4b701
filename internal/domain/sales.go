package domain

import (
	"time"
)

const DateLayout = "2006-01-02"

// Column names as exposed by both the flat file and the sales table.
const (
	ColOrderID   = "order_id"
	ColRegion    = "region"
	ColProduct   = "product"
	ColQuantity  = "quantity"
	ColUnitPrice = "unit_price"
	ColTotal     = "total"
	ColDate      = "date"
)

// AllColumns lists the sales columns in their canonical order.
var AllColumns = []string{
	ColOrderID,
	ColRegion,
	ColProduct,
	ColQuantity,
	ColUnitPrice,
	ColTotal,
	ColDate,
}

// SalesRow is one transaction record. Empty Region or Product means the value is
// null; a zero Date means the row has no usable date.
type SalesRow struct {
	OrderID   int64     `db:"order_id" json:"order_id"`
	Region    string    `db:"region" json:"region"`
	Product   string    `db:"product" json:"product"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
	Total     float64   `db:"total" json:"total"`
	Date      time.Time `db:"date" json:"date"`
}

// ColumnSet records which columns the source actually provided.
type ColumnSet map[string]bool

func NewColumnSet(cols ...string) ColumnSet {
	set := make(ColumnSet, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	return set
}

func (s ColumnSet) Has(col string) bool {
	return s[col]
}

func (s ColumnSet) Clone() ColumnSet {
	out := make(ColumnSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SalesTable is an ordered sequence of rows plus the columns they were read with.
// SyntheticDate is set when the source had no date column and every row was
// stamped with the load day.
type SalesTable struct {
	Columns       ColumnSet
	Rows          []SalesRow
	SyntheticDate bool
}

func NewSalesTable(cols ColumnSet, rows []SalesRow) *SalesTable {
	if cols == nil {
		cols = NewColumnSet()
	}
	return &SalesTable{Columns: cols, Rows: rows}
}

func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// RowsOrEmpty returns the rows, or nil for a nil table.
func (t *SalesTable) RowsOrEmpty() []SalesRow {
	if t == nil {
		return nil
	}
	return t.Rows
}

// Clone returns a copy whose rows and columns can be modified independently.
func (t *SalesTable) Clone() *SalesTable {
	if t == nil {
		return NewSalesTable(nil, nil)
	}
	rows := make([]SalesRow, len(t.Rows))
	copy(rows, t.Rows)
	return &SalesTable{Columns: t.Columns.Clone(), Rows: rows, SyntheticDate: t.SyntheticDate}
}

// WithRows returns a table sharing t's columns and holding rows.
func (t *SalesTable) WithRows(rows []SalesRow) *SalesTable {
	return &SalesTable{Columns: t.Columns.Clone(), Rows: rows, SyntheticDate: t.SyntheticDate}
}

type SalesPreview struct {
	Rows    int        `json:"rows"`
	Preview []SalesRow `json:"preview"`
}

type Pagination struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
}

type SalesPage struct {
	Data       []SalesRow `json:"data"`
	Pagination Pagination `json:"pagination"`
}
