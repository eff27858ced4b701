package domain

import "time"

type PearsonResult struct {
	PearsonR float64 `json:"pearson_r"`
	PValue   float64 `json:"p_value"`
}

type OLSResult struct {
	Params map[string]float64 `json:"params"`
	R2     float64            `json:"r2"`
}

type TrainResult struct {
	R2        float64   `json:"r2"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

type RegressionResult struct {
	Coef           float64 `json:"coef"`
	Intercept      float64 `json:"intercept"`
	Score          float64 `json:"score"`
	MeanQuantity   float64 `json:"mean_quantity"`
	PredictedTotal float64 `json:"predicted_total"`
}

type PredictRequest struct {
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type PredictResponse struct {
	YPred float64 `json:"y_pred"`
}

type ETLResult struct {
	Rows int    `json:"rows"`
	Dest string `json:"dest"`
}

type GoldExportResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Rows    int    `json:"rows,omitempty"`
	Parquet string `json:"parquet,omitempty"`
	CSV     string `json:"csv,omitempty"`
}

const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// ETLJob tracks an asynchronous ETL run.
type ETLJob struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Result    *ETLResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
