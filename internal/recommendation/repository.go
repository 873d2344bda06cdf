package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
)

// Repository defines persistence for recommendations and their feedback.
type Repository interface {
	// CreateBatch inserts all rows in one statement; either all are stored or none.
	CreateBatch(ctx context.Context, recs []Recommendation) error
	MarkNotified(ctx context.Context, ids []uuid.UUID, at time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*Recommendation, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]Recommendation, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, pq common.PaginationQuery) ([]Recommendation, *common.Pagination, error)
	CreateFeedback(ctx context.Context, fb *MatchFeedback) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM recommendation repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateBatch(ctx context.Context, recs []Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return fmt.Errorf("failed to store %d recommendations: %w", len(recs), err)
	}
	return nil
}

func (r *gormRepository) MarkNotified(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&Recommendation{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": StatusNotified, "notified_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to mark recommendations notified: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Recommendation, error) {
	var rec Recommendation
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Recommendation not found.")
		}
		return nil, fmt.Errorf("failed to find recommendation %s: %w", id, err)
	}
	return &rec, nil
}

func (r *gormRepository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]Recommendation, error) {
	var recs []Recommendation
	err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).
		Order("created_at DESC, rank ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations for listing %s: %w", listingID, err)
	}
	return recs, nil
}

func (r *gormRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, pq common.PaginationQuery) ([]Recommendation, *common.Pagination, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&Recommendation{}).Where("recipient_id = ?", recipientID)
	if err := base.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count recommendations: %w", err)
	}
	var recs []Recommendation
	err := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Scopes(pq.Scope()).
		Find(&recs).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list recommendations for recipient %s: %w", recipientID, err)
	}
	return recs, pq.Paginate(total), nil
}

func (r *gormRepository) CreateFeedback(ctx context.Context, fb *MatchFeedback) error {
	if err := r.db.WithContext(ctx).Create(fb).Error; err != nil {
		return fmt.Errorf("failed to store match feedback: %w", err)
	}
	return nil
}
