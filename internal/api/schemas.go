package api

import (
	"time"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
)

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SystemStatsResponse struct {
	Database *DatabaseStats     `json:"database,omitempty"`
	Cache    service.CacheStats `json:"cache"`
	API      APIStats           `json:"api"`
}

type DatabaseStats struct {
	ActiveConnections int32  `json:"active_connections"`
	IdleConnections   int32  `json:"idle_connections"`
	TotalConnections  int32  `json:"total_connections"`
	WaitCount         int64  `json:"wait_count"`
	WaitDuration      string `json:"wait_duration"`
}

type APIStats struct {
	MemoryUsed       string `json:"memory_used"`
	ActiveGoroutines int    `json:"active_goroutines"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LoadDataRequest struct {
	FilePath  string   `json:"file_path"`
	FilePaths []string `json:"file_paths"`
}

type LoadDataResponse struct {
	RecordsCount int64                       `json:"records_count"`
	Failed       int                         `json:"failed"`
	Files        []service.ProcessFileResult `json:"files"`
	Status       string                      `json:"status"`
	Message      string                      `json:"message"`
}

type CacheInvalidateResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	JobsRemoved int    `json:"jobs_removed"`
}

type CacheRefreshResponse struct {
	Status   string    `json:"status"`
	Rows     int       `json:"rows"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type SummaryResponse struct {
	domain.SummaryResult
	Filters domain.FilterSpec `json:"filters"`
}

type PeriodResponse struct {
	Period string               `json:"period"`
	Data   []domain.PeriodSales `json:"data"`
	Count  int                  `json:"count"`
}

type TopProductsResponse struct {
	By    string                `json:"by"`
	Data  []domain.ProductSales `json:"data"`
	Count int                   `json:"count"`
}

// ChartResponse carries a chart as a data URI, or a null image and the reason.
type ChartResponse struct {
	Image *string `json:"image"`
	Error string  `json:"error,omitempty"`
}

type ETLRunResponse struct {
	Status string            `json:"status"`
	Result *domain.ETLResult `json:"result,omitempty"`
	Job    *domain.ETLJob    `json:"job,omitempty"`
}
