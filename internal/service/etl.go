package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/etl"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

// JobStore persists asynchronous ETL job records.
type JobStore interface {
	Save(ctx context.Context, job domain.ETLJob) error
	Get(ctx context.Context, id string) (*domain.ETLJob, error)
	List(ctx context.Context) ([]domain.ETLJob, error)
}

type ETLService struct {
	pipeline *etl.Pipeline
	jobs     JobStore
	timeout  time.Duration
}

func NewETLService(pipeline *etl.Pipeline, jobs JobStore) *ETLService {
	return &ETLService{
		pipeline: pipeline,
		jobs:     jobs,
		timeout:  30 * time.Minute,
	}
}

// AsyncEnabled reports whether a job store is configured.
func (s *ETLService) AsyncEnabled() bool {
	return s.jobs != nil
}

func (s *ETLService) Run(ctx context.Context) (*domain.ETLResult, error) {
	return s.pipeline.Run(ctx, "")
}

// Start records a pending job and runs the pipeline in the background. The
// returned job can be polled with Job.
func (s *ETLService) Start(ctx context.Context) (*domain.ETLJob, error) {
	if s.jobs == nil {
		return nil, domain.ErrJobStoreUnavailable
	}

	job := domain.ETLJob{
		ID:        uuid.NewString(),
		Status:    domain.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	go s.execute(job)
	return &job, nil
}

func (s *ETLService) execute(job domain.ETLJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	job.Status = domain.JobRunning
	if err := s.jobs.Save(ctx, job); err != nil {
		logger.Warn("falha ao atualizar job", zap.String("job_id", job.ID), zap.Error(err))
	}

	result, err := s.pipeline.Run(ctx, "")
	if err != nil {
		job.Status = domain.JobFailed
		job.Error = err.Error()
		logger.Error("etl assíncrono falhou", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		job.Status = domain.JobDone
		job.Result = result
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		logger.Error("falha ao gravar resultado do job", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *ETLService) Job(ctx context.Context, id string) (*domain.ETLJob, error) {
	if s.jobs == nil {
		return nil, domain.ErrJobStoreUnavailable
	}
	return s.jobs.Get(ctx, id)
}

func (s *ETLService) Jobs(ctx context.Context) ([]domain.ETLJob, error) {
	if s.jobs == nil {
		return nil, domain.ErrJobStoreUnavailable
	}
	return s.jobs.List(ctx)
}

func (s *ETLService) ExportGold(ctx context.Context) (*domain.GoldExportResult, error) {
	return s.pipeline.ExportGold(ctx)
}
