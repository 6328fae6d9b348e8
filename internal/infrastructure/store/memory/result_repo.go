package memory

import (
	"context"
	"sort"
	"sync"

	"docify/internal/domain/entity"
	"docify/internal/domain/repository"
	"docify/internal/infrastructure/metrics"
)

// ResultRepo keeps salvaged results in process memory. Used when no Mongo
// URI is configured, and in tests. Contents do not survive a restart.
type ResultRepo struct {
	mu      sync.RWMutex
	results map[string]entity.GenerationResult
}

func NewResultRepo() repository.SalvageRepository {
	return &ResultRepo{results: make(map[string]entity.GenerationResult)}
}

func (r *ResultRepo) Save(_ context.Context, result *entity.GenerationResult) error {
	metrics.IncSalvageOp("put")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.ID] = *result
	return nil
}

func (r *ResultRepo) GetByID(_ context.Context, id string) (*entity.GenerationResult, error) {
	metrics.IncSalvageOp("get")

	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[id]
	if !ok {
		return nil, entity.ErrResultNotFound
	}
	return &result, nil
}

func (r *ResultRepo) Update(_ context.Context, result *entity.GenerationResult) error {
	metrics.IncSalvageOp("put")

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[result.ID]; !ok {
		return entity.ErrResultNotFound
	}
	r.results[result.ID] = *result
	return nil
}

func (r *ResultRepo) List(_ context.Context, limit int) ([]*entity.GenerationResult, error) {
	metrics.IncSalvageOp("list")

	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]*entity.GenerationResult, 0, len(r.results))
	for id := range r.results {
		res := r.results[id]
		results = append(results, &res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
