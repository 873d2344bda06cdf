package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
)

// Repository defines the interface for claim data operations.
type Repository interface {
	Create(ctx context.Context, c *Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	// TransitionStatus moves the claim to `to` only if its current status is
	// one of from, and reports whether the row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []ClaimStatus, to ClaimStatus) (bool, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]Claim, error)
	CountByRecipient(ctx context.Context, recipientID uuid.UUID) (int64, error)
	CountByRecipientSince(ctx context.Context, recipientID uuid.UUID, since time.Time, statuses []ClaimStatus) (int64, error)
	// ClaimDelaysSince returns, per claim made since, how long after the
	// listing was posted the claim came in.
	ClaimDelaysSince(ctx context.Context, recipientID uuid.UUID, since time.Time) ([]time.Duration, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM claim repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, c *Claim) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	var c Claim
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Claim not found.")
		}
		return nil, fmt.Errorf("failed to find claim %s: %w", id, err)
	}
	return &c, nil
}

func (r *gormRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []ClaimStatus, to ClaimStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Claim{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update claim %s status: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) paginate(query *gorm.DB, pq common.PaginationQuery) ([]Claim, *common.Pagination, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count claims: %w", err)
	}
	var claims []Claim
	err := query.Order("claims.created_at DESC").
		Scopes(pq.Scope()).
		Find(&claims).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, pq.Paginate(total), nil
}

func (r *gormRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Claim{}).Where("recipient_id = ?", recipientID)
	return r.paginate(query, pq)
}

// ListByDonor returns claims on any listing owned by donorID.
func (r *gormRepository) ListByDonor(ctx context.Context, donorID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Claim{}).
		Joins("JOIN food_listings ON food_listings.id = claims.listing_id").
		Where("food_listings.donor_id = ?", donorID)
	return r.paginate(query, pq)
}

func (r *gormRepository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]Claim, error) {
	var claims []Claim
	err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at DESC").Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claims for listing %s: %w", listingID, err)
	}
	return claims, nil
}

func (r *gormRepository) CountByRecipient(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Claim{}).Where("recipient_id = ?", recipientID).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountByRecipientSince(ctx context.Context, recipientID uuid.UUID, since time.Time, statuses []ClaimStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&Claim{}).Where("recipient_id = ? AND created_at >= ?", recipientID, since)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Count(&count).Error
	return count, err
}

type claimTiming struct {
	ClaimedAt time.Time
	ListedAt  time.Time
}

func (r *gormRepository) ClaimDelaysSince(ctx context.Context, recipientID uuid.UUID, since time.Time) ([]time.Duration, error) {
	var rows []claimTiming
	err := r.db.WithContext(ctx).Model(&Claim{}).
		Select("claims.created_at AS claimed_at, food_listings.created_at AS listed_at").
		Joins("JOIN food_listings ON food_listings.id = claims.listing_id").
		Where("claims.recipient_id = ? AND claims.created_at >= ?", recipientID, since).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load claim timings: %w", err)
	}
	delays := make([]time.Duration, 0, len(rows))
	for _, row := range rows {
		delays = append(delays, row.ClaimedAt.Sub(row.ListedAt))
	}
	return delays, nil
}
