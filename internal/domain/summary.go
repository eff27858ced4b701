package domain

type SummaryResult struct {
	TotalRevenue   float64  `json:"total_revenue"`
	TotalQuantity  int64    `json:"total_quantity"`
	SalesCount     int      `json:"sales_count"`
	AvgTicket      float64  `json:"avg_ticket"`
	AvgQuantity    float64  `json:"avg_quantity"`
	TopProducts    []string `json:"top_products"`
	UniqueProducts int      `json:"unique_products"`
	Regions        []string `json:"regions"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	Warnings       []string `json:"warnings,omitempty"`
}

// EmptySummary is the zero result returned for empty or unusable tables.
func EmptySummary(warnings ...string) SummaryResult {
	return SummaryResult{
		TopProducts: []string{},
		Regions:     []string{},
		Warnings:    warnings,
	}
}

// Degraded reports whether the summary was computed with a fallback.
func (s SummaryResult) Degraded() bool {
	return len(s.Warnings) > 0
}

type PeriodSales struct {
	Period       string  `json:"period"`
	TotalSales   int64   `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgTicket    float64 `json:"avg_ticket"`
	OrderCount   int     `json:"order_count"`
}

type ProductSales struct {
	Product    string  `json:"product"`
	Revenue    float64 `json:"revenue"`
	Quantity   int64   `json:"quantity"`
	OrderCount int     `json:"order_count"`
	AvgPrice   float64 `json:"avg_price"`
}
