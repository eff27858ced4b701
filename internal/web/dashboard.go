// Package web renders the HTML dashboard served at the root path. The markup
// lives in dashboard.templ; run `templ generate` after editing it.
package web

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const pngDataURIPrefix = "data:image/png;base64,"

type DashboardData struct {
	Summary     domain.SummaryResult
	TopProducts []domain.ProductSales
	// Charts maps a chart name to its PNG data URI.
	Charts          map[string]string
	PowerBIEmbedURL string
	Error           string
	GeneratedAt     time.Time
}

type kpiCard struct {
	Label string
	Value string
}

type chartImage struct {
	Name string
	URI  string
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func kpiCards(s domain.SummaryResult) []kpiCard {
	period := "-"
	if s.StartDate != nil && s.EndDate != nil {
		period = *s.StartDate + " a " + *s.EndDate
	}

	return []kpiCard{
		{"Receita total", money(s.TotalRevenue)},
		{"Quantidade", strconv.FormatInt(s.TotalQuantity, 10)},
		{"Vendas", strconv.Itoa(s.SalesCount)},
		{"Ticket médio", money(s.AvgTicket)},
		{"Produtos", strconv.Itoa(s.UniqueProducts)},
		{"Regiões", strings.Join(s.Regions, ", ")},
		{"Período", period},
	}
}

// pngCharts returns the PNG data URIs sorted by chart name; anything else is
// dropped.
func pngCharts(images map[string]string) []chartImage {
	charts := make([]chartImage, 0, len(images))
	for name, uri := range images {
		if strings.HasPrefix(uri, pngDataURIPrefix) {
			charts = append(charts, chartImage{Name: name, URI: uri})
		}
	}
	slices.SortFunc(charts, func(a, b chartImage) int { return strings.Compare(a.Name, b.Name) })
	return charts
}

// embeddable reports whether the Power BI iframe may be rendered.
func embeddable(url string) bool {
	return strings.HasPrefix(url, "https://")
}
