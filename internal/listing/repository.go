// File: internal/listing/repository.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
)

// Repository defines the interface for food listing data operations.
type Repository interface {
	Create(ctx context.Context, listing *FoodListing) error
	FindByID(ctx context.Context, id uuid.UUID) (*FoodListing, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]FoodListing, error)
	Update(ctx context.Context, listing *FoodListing) error
	Delete(ctx context.Context, id uuid.UUID, donorID uuid.UUID) error
	Search(ctx context.Context, query ListingSearchQuery, now time.Time) ([]FoodListing, *common.Pagination, error)
	// MarkClaimedIfAvailable flips available to claimed in a single conditional
	// write and reports whether this call performed the flip.
	MarkClaimedIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkAvailable flips claimed back to available; a listing already
	// available is left untouched.
	MarkAvailable(ctx context.Context, id uuid.UUID) error
	CountByDonorSince(ctx context.Context, donorID uuid.UUID, since time.Time) (int64, error)
	CountByDonor(ctx context.Context, donorID uuid.UUID) (int64, error)
	CountActiveByDonor(ctx context.Context, donorID uuid.UUID, now time.Time) (int64, error)
	FindExpiredAvailable(ctx context.Context, now time.Time, offset, limit int) ([]FoodListing, error)
	FindAllForSync(ctx context.Context, offset, limit int) ([]FoodListing, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM listing repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, listing *FoodListing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*FoodListing, error) {
	var listing FoodListing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]FoodListing, error) {
	var listings []FoodListing
	if len(ids) == 0 {
		return listings, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	return listings, nil
}

// editableColumns are the columns a donor edit may write. Status is owned by
// MarkClaimedIfAvailable and MarkAvailable.
var editableColumns = []string{
	"title", "slug", "food_type", "quantity", "description",
	"expiry_date", "location", "dietary_tags", "image_url",
}

// Update writes the donor-editable fields of listing. A stale copy never
// overwrites the claim status.
func (r *gormRepository) Update(ctx context.Context, listing *FoodListing) error {
	err := r.db.WithContext(ctx).Model(listing).Select(editableColumns).Updates(listing).Error
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	if err := r.db.WithContext(ctx).First(listing, "id = ?", listing.ID).Error; err != nil {
		return fmt.Errorf("failed to reload listing: %w", err)
	}
	return nil
}

// Delete removes a listing by ID, ensuring ownership.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID, donorID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND donor_id = ?", id, donorID).Delete(&FoodListing{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found or you do not have permission to delete it.")
	}
	return nil
}

// Search retrieves listings matching the query, newest first.
func (r *gormRepository) Search(ctx context.Context, q ListingSearchQuery, now time.Time) ([]FoodListing, *common.Pagination, error) {
	var listings []FoodListing
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&FoodListing{})

	if len(q.IDs) > 0 {
		dbQuery = dbQuery.Where("id IN ?", q.IDs)
	} else if q.Query != "" {
		term := "%" + strings.ToLower(q.Query) + "%"
		dbQuery = dbQuery.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(food_type) LIKE ?", term, term, term)
	}
	if q.Status != "" {
		dbQuery = dbQuery.Where("status = ?", q.Status)
	}
	if q.FoodType != "" {
		dbQuery = dbQuery.Where("food_type = ?", q.FoodType)
	}
	if q.Location != "" {
		dbQuery = dbQuery.Where("location = ?", q.Location)
	}
	if q.DonorID != nil && *q.DonorID != uuid.Nil {
		dbQuery = dbQuery.Where("donor_id = ?", *q.DonorID)
	}
	if !q.IncludeExpired {
		dbQuery = dbQuery.Where("expiry_date > ?", now)
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count listings: %w", err)
	}

	pagination := q.Paginate(totalItems)
	err := dbQuery.Order("created_at DESC").
		Scopes(q.Scope()).
		Find(&listings).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return listings, pagination, nil
}

func (r *gormRepository) MarkClaimedIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&FoodListing{}).
		Where("id = ? AND status = ?", id, StatusAvailable).
		Update("status", StatusClaimed)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim listing: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) MarkAvailable(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&FoodListing{}).
		Where("id = ? AND status = ?", id, StatusClaimed).
		Update("status", StatusAvailable)
	if result.Error != nil {
		return fmt.Errorf("failed to release listing: %w", result.Error)
	}
	return nil
}

func (r *gormRepository) CountByDonorSince(ctx context.Context, donorID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FoodListing{}).
		Where("donor_id = ? AND created_at >= ?", donorID, since).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountByDonor(ctx context.Context, donorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FoodListing{}).Where("donor_id = ?", donorID).Count(&count).Error
	return count, err
}

// CountActiveByDonor counts listings still available and not yet expired.
func (r *gormRepository) CountActiveByDonor(ctx context.Context, donorID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FoodListing{}).
		Where("donor_id = ? AND status = ? AND expiry_date > ?", donorID, StatusAvailable, now).
		Count(&count).Error
	return count, err
}

// FindExpiredAvailable returns listings past expiry that nobody claimed.
func (r *gormRepository) FindExpiredAvailable(ctx context.Context, now time.Time, offset, limit int) ([]FoodListing, error) {
	var listings []FoodListing
	err := r.db.WithContext(ctx).
		Where("expiry_date <= ? AND status = ?", now, StatusAvailable).
		Order("expiry_date ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

func (r *gormRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]FoodListing, error) {
	var listings []FoodListing
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}
