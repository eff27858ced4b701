package analysis

import (
	"sync"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

// ModelHolder owns the prediction model. It starts untrained; Train replaces
// the model atomically.
type ModelHolder struct {
	mu  sync.RWMutex
	fit *Fit
}

func NewModelHolder() *ModelHolder {
	return &ModelHolder{}
}

func (h *ModelHolder) Trained() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fit != nil
}

// Train fits total ~ quantity + unit_price on table. On error the previous
// model, if any, is kept.
func (h *ModelHolder) Train(table *domain.SalesTable) (*domain.TrainResult, error) {
	fit, err := FitTotal(table)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.fit = &fit
	h.mu.Unlock()

	return &domain.TrainResult{
		R2:        fit.R2,
		Coef:      []float64{fit.Coef[0], fit.Coef[1]},
		Intercept: fit.Intercept,
	}, nil
}

func (h *ModelHolder) Predict(quantity int64, unitPrice float64) (float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.fit == nil {
		return 0, domain.ErrModelNotTrained
	}
	return h.fit.Predict(float64(quantity), unitPrice), nil
}

// Reset returns the holder to the untrained state.
func (h *ModelHolder) Reset() {
	h.mu.Lock()
	h.fit = nil
	h.mu.Unlock()
}
