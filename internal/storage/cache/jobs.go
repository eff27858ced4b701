package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const jobKeyPrefix = "etl:job:"

// JobStore keeps ETL job records in Redis under etl:job:<id>.
type JobStore struct {
	cache *RedisCache
}

func NewJobStore(cache *RedisCache) *JobStore {
	return &JobStore{cache: cache}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func (s *JobStore) Save(ctx context.Context, job domain.ETLJob) error {
	job.UpdatedAt = time.Now().UTC()
	if err := s.cache.Set(ctx, jobKey(job.ID), job); err != nil {
		return fmt.Errorf("erro ao salvar job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*domain.ETLJob, error) {
	var job domain.ETLJob
	if err := s.cache.Get(ctx, jobKey(id), &job); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// List returns every stored job, most recently created first.
func (s *JobStore) List(ctx context.Context) ([]domain.ETLJob, error) {
	keys, err := s.cache.Keys(ctx, jobKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.ETLJob, 0, len(keys))
	for _, key := range keys {
		job, err := s.Get(ctx, strings.TrimPrefix(key, jobKeyPrefix))
		if errors.Is(err, domain.ErrJobNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	slices.SortFunc(jobs, func(a, b domain.ETLJob) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return jobs, nil
}

// Purge removes every job record and reports how many were deleted.
func (s *JobStore) Purge(ctx context.Context) (int, error) {
	return s.cache.DeletePattern(ctx, jobKeyPrefix+"*")
}
