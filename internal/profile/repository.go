// File: internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
)

// Repository defines the interface for profile data operations.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error)
	FindByFirebaseUID(ctx context.Context, firebaseUID string) (*Profile, error)
	ListByRole(ctx context.Context, role, location string) ([]Profile, error)
	Update(ctx context.Context, p *Profile) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM profile repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func normalizeEmail(p *Profile) {
	if p.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*p.Email))
		p.Email = &e
	}
}

func (r *gormRepository) Create(ctx context.Context, p *Profile) error {
	normalizeEmail(p)
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return common.ErrConflict.WithDetails("A profile for this account already exists.")
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found.")
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error) {
	var profiles []Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	return profiles, nil
}

func (r *gormRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found with this Firebase UID.")
		}
		return nil, fmt.Errorf("find profile by firebase uid: %w", err)
	}
	return &p, nil
}

// ListByRole returns profiles with role, optionally restricted to a location,
// ordered by name.
func (r *gormRepository) ListByRole(ctx context.Context, role, location string) ([]Profile, error) {
	var profiles []Profile
	q := r.db.WithContext(ctx).Where("role = ?", role)
	if location != "" {
		q = q.Where("location = ?", location)
	}
	if err := q.Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles by role: %w", err)
	}
	return profiles, nil
}

func (r *gormRepository) Update(ctx context.Context, p *Profile) error {
	normalizeEmail(p)
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
