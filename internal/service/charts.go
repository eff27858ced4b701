package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jeovahfialho/sales-analyzer/internal/charts"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const (
	ChartRevenueByProduct = "revenue-by-product"
	ChartQuantityVsPrice  = "quantity-vs-price"
)

type renderFunc func(*domain.SalesTable) ([]byte, error)

var renderers = map[string]renderFunc{
	ChartRevenueByProduct: charts.RevenueByProduct,
	ChartQuantityVsPrice:  charts.QuantityVsPrice,
}

type ChartService struct {
	loader *Loader
}

func NewChartService(loader *Loader) *ChartService {
	return &ChartService{loader: loader}
}

// Known reports whether name is a chart this service can render.
func (s *ChartService) Known(name string) bool {
	_, ok := renderers[name]
	return ok
}

// Render draws the named chart over the full table as PNG.
func (s *ChartService) Render(ctx context.Context, name string) ([]byte, error) {
	render, ok := renderers[name]
	if !ok {
		return nil, domain.ErrNoData
	}

	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return nil, err
	}
	return render(table)
}

// RenderAll draws every chart concurrently over one load. Charts without data
// are left out of the result.
func (s *ChartService) RenderAll(ctx context.Context) (map[string][]byte, error) {
	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	images := make([][]byte, len(names))

	g, _ := errgroup.WithContext(ctx)
	for i, name := range names {
		render := renderers[name]
		g.Go(func() error {
			png, err := render(table)
			if errors.Is(err, domain.ErrNoData) {
				return nil
			}
			images[i] = png
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(names))
	for i, name := range names {
		if images[i] != nil {
			out[name] = images[i]
		}
	}
	return out, nil
}
