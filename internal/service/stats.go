package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/analysis"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

type StatsService struct {
	loader *Loader
	model  *analysis.ModelHolder
}

func NewStatsService(loader *Loader, model *analysis.ModelHolder) *StatsService {
	if model == nil {
		model = analysis.NewModelHolder()
	}
	return &StatsService{loader: loader, model: model}
}

func (s *StatsService) Pearson(ctx context.Context) (domain.PearsonResult, error) {
	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return domain.PearsonResult{}, err
	}
	return analysis.Pearson(table), nil
}

func (s *StatsService) OLS(ctx context.Context) (*domain.OLSResult, error) {
	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return nil, err
	}
	return analysis.OLS(table)
}

func (s *StatsService) LinearRegression(ctx context.Context) (*domain.RegressionResult, error) {
	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return nil, err
	}
	return analysis.SimpleRegression(table)
}

func (s *StatsService) Train(ctx context.Context) (*domain.TrainResult, error) {
	table, err := s.loader.Load(ctx, true, nil)
	if err != nil {
		return nil, err
	}

	result, err := s.model.Train(table)
	if err != nil {
		return nil, err
	}
	logger.Info("modelo treinado", zap.Float64("r2", result.R2), zap.Int("rows", table.Len()))
	return result, nil
}

// ResetModel discards the trained model; the next Predict retrains it.
func (s *StatsService) ResetModel() {
	s.model.Reset()
}

// Predict trains the model on the current table first when it is untrained.
func (s *StatsService) Predict(ctx context.Context, req domain.PredictRequest) (*domain.PredictResponse, error) {
	if !s.model.Trained() {
		if _, err := s.Train(ctx); err != nil {
			return nil, err
		}
	}

	y, err := s.model.Predict(req.Quantity, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	return &domain.PredictResponse{YPred: y}, nil
}
