package domain

import (
	"math"
	"strings"
	"time"
)

// productSentinels are product filter values that mean "every product".
var productSentinels = map[string]bool{
	"":                  true,
	"all":               true,
	"todos":             true,
	"todos os produtos": true,
}

// IsAllProducts reports whether the product filter value means "no filter".
// Comparison ignores surrounding whitespace and case.
func IsAllProducts(product string) bool {
	return productSentinels[strings.ToLower(strings.TrimSpace(product))]
}

// FilterSpec is an AND-combination of optional, inclusive predicates.
// DateTo covers the whole calendar day: rows match while date < DateTo + 1 day.
type FilterSpec struct {
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	Product     string     `json:"product,omitempty"`
	Region      string     `json:"region,omitempty"`
	MinQuantity *int64     `json:"min_quantity,omitempty"`
	MaxQuantity *int64     `json:"max_quantity,omitempty"`
	MinPrice    *float64   `json:"min_price,omitempty"`
	MaxPrice    *float64   `json:"max_price,omitempty"`
}

// Normalized returns a copy with the product sentinel folded to "" and
// whitespace trimmed from the string predicates.
func (f FilterSpec) Normalized() FilterSpec {
	out := f
	if IsAllProducts(out.Product) {
		out.Product = ""
	} else {
		out.Product = strings.TrimSpace(out.Product)
	}
	out.Region = strings.TrimSpace(out.Region)
	return out
}

// IsEmpty reports whether no predicate is active.
func (f *FilterSpec) IsEmpty() bool {
	if f == nil {
		return true
	}
	n := f.Normalized()
	return n.DateFrom == nil &&
		n.DateTo == nil &&
		n.Product == "" &&
		n.Region == "" &&
		n.MinQuantity == nil &&
		n.MaxQuantity == nil &&
		n.MinPrice == nil &&
		n.MaxPrice == nil
}

// DateToExclusive returns the first instant after the DateTo calendar day.
func (f FilterSpec) DateToExclusive() *time.Time {
	if f.DateTo == nil {
		return nil
	}
	y, m, d := f.DateTo.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, f.DateTo.Location()).AddDate(0, 0, 1)
	return &next
}

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// Descending reports the effective direction; anything but "asc" sorts descending.
func (s SortSpec) Descending() bool {
	return strings.ToLower(strings.TrimSpace(s.Direction)) != SortAsc
}

type PageSpec struct {
	Offset int  `json:"offset"`
	Limit  *int `json:"limit,omitempty"`
}

// PageFromNumber converts a 1-based page number into an offset/limit window.
// An offset that does not fit in an int saturates at math.MaxInt.
func PageFromNumber(page, pageSize int) PageSpec {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	offset := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		offset = (page - 1) * pageSize
	}
	return PageSpec{Offset: offset, Limit: &pageSize}
}
