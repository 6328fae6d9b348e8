package repository

import (
	"context"

	"docify/internal/domain/entity"
)

// SalvageRepository keeps terminal GenerationResults so a document generated
// before a failed write stays retrievable and re-writable.
type SalvageRepository interface {
	Save(ctx context.Context, result *entity.GenerationResult) error
	GetByID(ctx context.Context, id string) (*entity.GenerationResult, error)
	Update(ctx context.Context, result *entity.GenerationResult) error
	List(ctx context.Context, limit int) ([]*entity.GenerationResult, error)
}
