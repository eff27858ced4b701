// Package charts renders the dashboard PNG charts.
package charts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/query"
)

const (
	width  = 7 * vg.Inch
	height = 4 * vg.Inch
)

var skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// RevenueByProduct draws summed revenue per product as a bar chart, products
// ordered by revenue.
func RevenueByProduct(table *domain.SalesTable) ([]byte, error) {
	if table.Len() == 0 || !table.Columns.Has(domain.ColProduct) {
		return nil, domain.ErrNoData
	}

	products := query.TopProducts(table, table.Len(), query.RankByRevenue)
	if len(products) == 0 {
		return nil, domain.ErrNoData
	}

	values := make(plotter.Values, len(products))
	names := make([]string, len(products))
	for i, p := range products {
		values[i] = p.Revenue
		names[i] = p.Product
	}

	p := plot.New()
	p.Title.Text = "Receita por Produto"
	p.Y.Label.Text = "Receita"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("erro ao criar gráfico de barras: %w", err)
	}
	bars.Color = skyBlue
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(names...)

	return render(p)
}

// QuantityVsPrice draws one point per sale, quantity on X and unit price on Y.
func QuantityVsPrice(table *domain.SalesTable) ([]byte, error) {
	if table.Len() == 0 || !table.Columns.Has(domain.ColQuantity) || !table.Columns.Has(domain.ColUnitPrice) {
		return nil, domain.ErrNoData
	}

	points := make(plotter.XYs, table.Len())
	for i, r := range table.Rows {
		points[i].X = float64(r.Quantity)
		points[i].Y = r.UnitPrice
	}

	p := plot.New()
	p.Title.Text = "Quantidade x Preço Unitário"
	p.X.Label.Text = "Quantidade"
	p.Y.Label.Text = "Preço unitário"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar gráfico de dispersão: %w", err)
	}
	scatter.GlyphStyle.Color = skyBlue
	scatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(scatter)

	return render(p)
}

func render(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("erro ao renderizar gráfico: %w", err)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("erro ao gravar png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes a PNG for inline use in JSON or HTML.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
