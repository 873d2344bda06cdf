// File: internal/goal/repository.go
package goal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
)

// Repository defines persistence for goals.
type Repository interface {
	Create(ctx context.Context, g *Goal) error
	FindByID(ctx context.Context, id uuid.UUID) (*Goal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Goal, error)
	Update(ctx context.Context, g *Goal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM goal repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, g *Goal) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Goal, error) {
	var g Goal
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Goal not found.")
		}
		return nil, fmt.Errorf("failed to find goal %s: %w", id, err)
	}
	return &g, nil
}

func (r *gormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Goal, error) {
	var goals []Goal
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list goals for user %s: %w", userID, err)
	}
	return goals, nil
}

func (r *gormRepository) Update(ctx context.Context, g *Goal) error {
	if err := r.db.WithContext(ctx).Save(g).Error; err != nil {
		return fmt.Errorf("failed to update goal %s: %w", g.ID, err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Goal{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete goal %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Goal not found.")
	}
	return nil
}
