// File: internal/listing/model.go
package listing

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"shareaplate_backend/internal/common"
)

// ListingStatus defines the possible statuses of a food listing.
type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusClaimed   ListingStatus = "claimed"
)

// DietaryTags is a text[] column on PostgreSQL and a plain text column on
// SQLite; both use the PostgreSQL array literal encoding.
type DietaryTags []string

func (t DietaryTags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *DietaryTags) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*t = DietaryTags(arr)
	return nil
}

// GormDataType lets the schema parser treat the slice as a single column.
func (DietaryTags) GormDataType() string {
	return "text"
}

// GormDBDataType picks the column type per dialect.
func (DietaryTags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// FoodListing is surplus food posted by a donor.
type FoodListing struct {
	common.BaseModel
	DonorID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Slug        string    `gorm:"type:varchar(300);index"`
	FoodType    string    `gorm:"type:varchar(100)"`
	Quantity    string    `gorm:"type:varchar(100)"`
	Description string    `gorm:"type:text"`
	ExpiryDate  time.Time `gorm:"not null;index"`
	Location    string    `gorm:"type:varchar(50);index"`
	DietaryTags DietaryTags
	ImageURL    *string       `gorm:"type:text"`
	Status      ListingStatus `gorm:"type:varchar(20);not null;default:'available';index"`
}

// TableName specifies the table name for the FoodListing model.
func (FoodListing) TableName() string {
	return "food_listings"
}

// IsExpired reports whether the listing is past its expiry at now.
func (l *FoodListing) IsExpired(now time.Time) bool {
	return !l.ExpiryDate.After(now)
}

// Indexer keeps a search index in step with the listings table. Index
// failures never block writes.
type Indexer interface {
	IndexListing(ctx context.Context, l *FoodListing) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
	// SearchIDs returns listing ids matching a free-text query, best match first.
	SearchIDs(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

// --- DTOs ---

// CreateListingRequest defines the structure for creating a new food listing.
type CreateListingRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=255"`
	FoodType    string    `json:"food_type" binding:"required,max=100"`
	Quantity    string    `json:"quantity" binding:"required,max=100"`
	Description string    `json:"description" binding:"omitempty,max=5000"`
	ExpiryDate  time.Time `json:"expiry_date" binding:"required"`
	Location    string    `json:"location" binding:"required,neighborhood"`
	DietaryTags []string  `json:"dietary_tags" binding:"omitempty,max=10,dive,min=1,max=50"`
}

// UpdateListingRequest defines the structure for updating a listing. All fields are optional.
type UpdateListingRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	FoodType    *string    `json:"food_type" binding:"omitempty,max=100"`
	Quantity    *string    `json:"quantity" binding:"omitempty,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Location    *string    `json:"location" binding:"omitempty,neighborhood"`
	DietaryTags *[]string  `json:"dietary_tags" binding:"omitempty,max=10"`
}

// ListingSearchQuery defines parameters for searching listings.
type ListingSearchQuery struct {
	common.PaginationQuery
	Query          string     `form:"q"`
	Status         string     `form:"status" binding:"omitempty,oneof=available claimed"`
	FoodType       string     `form:"food_type"`
	Location       string     `form:"location" binding:"omitempty,neighborhood"`
	DonorID        *uuid.UUID `form:"-"`
	IncludeExpired bool       `form:"include_expired"`
	// IDs restricts results to listings returned by the search index.
	IDs []uuid.UUID `form:"-"`
}

// ListingResponse defines the structure for listing data sent in API responses.
type ListingResponse struct {
	ID            uuid.UUID     `json:"id"`
	DonorID       uuid.UUID     `json:"donor_id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	FoodType      string        `json:"food_type"`
	Quantity      string        `json:"quantity"`
	Description   string        `json:"description,omitempty"`
	ExpiryDate    time.Time     `json:"expiry_date"`
	HoursToExpiry int           `json:"hours_to_expiry"`
	Location      string        `json:"location"`
	DietaryTags   []string      `json:"dietary_tags"`
	ImageURL      *string       `json:"image_url,omitempty"`
	Status        ListingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ToListingResponse converts a FoodListing model to a ListingResponse DTO.
func ToListingResponse(l *FoodListing, now time.Time) ListingResponse {
	tags := []string(l.DietaryTags)
	if tags == nil {
		tags = []string{}
	}
	hours := int(l.ExpiryDate.Sub(now).Hours())
	if hours < 0 {
		hours = 0
	}
	return ListingResponse{
		ID:            l.ID,
		DonorID:       l.DonorID,
		Title:         l.Title,
		Slug:          l.Slug,
		FoodType:      l.FoodType,
		Quantity:      l.Quantity,
		Description:   l.Description,
		ExpiryDate:    l.ExpiryDate,
		HoursToExpiry: hours,
		Location:      l.Location,
		DietaryTags:   tags,
		ImageURL:      l.ImageURL,
		Status:        l.Status,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// ErrSearchUnavailable is returned by an Indexer when no search backend is configured.
var ErrSearchUnavailable = errors.New("search index is not configured")

// NoopIndexer is used when search indexing is disabled.
type NoopIndexer struct{}

func (NoopIndexer) IndexListing(context.Context, *FoodListing) error { return ErrSearchUnavailable }
func (NoopIndexer) DeleteListing(context.Context, uuid.UUID) error   { return ErrSearchUnavailable }
func (NoopIndexer) SearchIDs(context.Context, string, int) ([]uuid.UUID, error) {
	return nil, ErrSearchUnavailable
}
