// File: internal/listing/service.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/events"
)

// ImageStore persists listing photos.
type ImageStore interface {
	Enabled() bool
	SaveUploadedFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (key, url string, err error)
	DeleteFile(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Service defines the interface for listing-related business logic.
type Service interface {
	CreateListing(ctx context.Context, donorID uuid.UUID, req CreateListingRequest) (*FoodListing, error)
	GetListingByID(ctx context.Context, id uuid.UUID) (*FoodListing, error)
	UpdateListing(ctx context.Context, id uuid.UUID, donorID uuid.UUID, req UpdateListingRequest) (*FoodListing, error)
	DeleteListing(ctx context.Context, id uuid.UUID, donorID uuid.UUID) error
	SearchListings(ctx context.Context, query ListingSearchQuery) ([]FoodListing, *common.Pagination, error)
	GetDonorListings(ctx context.Context, donorID uuid.UUID, query ListingSearchQuery) ([]FoodListing, *common.Pagination, error)
	UploadImage(ctx context.Context, id uuid.UUID, donorID uuid.UUID, file *multipart.FileHeader) (*FoodListing, error)

	// ClaimIfAvailable and Release keep the listing status in step with its
	// active claim.
	ClaimIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error

	DonorStats(ctx context.Context, donorID uuid.UUID) (active int64, total int64, err error)
}

// ServiceImplementation implements the listing Service interface.
type ServiceImplementation struct {
	repo      Repository
	indexer   Indexer
	images    ImageStore
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new listing service.
func NewService(
	repo Repository,
	indexer Indexer,
	images ImageStore,
	publisher events.Publisher,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:      repo,
		indexer:   indexer,
		images:    images,
		publisher: publisher,
		logger:    logger.Named("listing_service"),
		now:       time.Now,
	}
}

func makeSlug(title string, id uuid.UUID) string {
	return slug.Make(title) + "-" + strings.Split(id.String(), "-")[0]
}

// CreateListing handles the business logic for creating a new listing.
func (s *ServiceImplementation) CreateListing(ctx context.Context, donorID uuid.UUID, req CreateListingRequest) (*FoodListing, error) {
	if !req.ExpiryDate.After(s.now()) {
		return nil, common.NewValidationError(map[string]string{"ExpiryDate": "The expiry_date field must be in the future."})
	}

	l := &FoodListing{
		DonorID:     donorID,
		Title:       strings.TrimSpace(req.Title),
		FoodType:    req.FoodType,
		Quantity:    req.Quantity,
		Description: req.Description,
		ExpiryDate:  req.ExpiryDate.UTC(),
		Location:    req.Location,
		DietaryTags: DietaryTags(req.DietaryTags),
		Status:      StatusAvailable,
	}
	l.ID = uuid.New()
	l.Slug = makeSlug(l.Title, l.ID)

	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.Error("Failed to create listing", zap.Error(err), zap.String("donorID", donorID.String()))
		return nil, err
	}

	s.reindex(ctx, l)
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.Event{
		Type:     events.TypeListingCreated,
		EntityID: l.ID.String(),
		ActorID:  donorID.String(),
		Payload:  map[string]interface{}{"location": l.Location, "expiry_date": l.ExpiryDate},
	})
	s.logger.Info("Listing created", zap.String("listingID", l.ID.String()), zap.String("donorID", donorID.String()))
	return l, nil
}

func (s *ServiceImplementation) GetListingByID(ctx context.Context, id uuid.UUID) (*FoodListing, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ServiceImplementation) getOwned(ctx context.Context, id, donorID uuid.UUID) (*FoodListing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.DonorID != donorID {
		s.logger.Warn("Listing ownership check failed", zap.String("listingID", id.String()), zap.String("donorID", donorID.String()))
		return nil, common.ErrForbidden.WithDetails("You do not own this listing.")
	}
	return l, nil
}

// UpdateListing applies the non-nil fields of req to a listing the donor owns.
func (s *ServiceImplementation) UpdateListing(ctx context.Context, id uuid.UUID, donorID uuid.UUID, req UpdateListingRequest) (*FoodListing, error) {
	l, err := s.getOwned(ctx, id, donorID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		l.Title = strings.TrimSpace(*req.Title)
		l.Slug = makeSlug(l.Title, l.ID)
	}
	if req.FoodType != nil {
		l.FoodType = *req.FoodType
	}
	if req.Quantity != nil {
		l.Quantity = *req.Quantity
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.ExpiryDate != nil {
		if !req.ExpiryDate.After(s.now()) {
			return nil, common.NewValidationError(map[string]string{"ExpiryDate": "The expiry_date field must be in the future."})
		}
		l.ExpiryDate = req.ExpiryDate.UTC()
	}
	if req.Location != nil {
		l.Location = *req.Location
	}
	if req.DietaryTags != nil {
		l.DietaryTags = DietaryTags(*req.DietaryTags)
	}

	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.Error("Failed to update listing", zap.Error(err), zap.String("listingID", id.String()))
		return nil, err
	}
	s.reindex(ctx, l)
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.Event{
		Type: events.TypeListingUpdated, EntityID: l.ID.String(), ActorID: donorID.String(),
	})
	return l, nil
}

// DeleteListing removes a listing. Claimed listings cannot be deleted while
// their claim is active.
func (s *ServiceImplementation) DeleteListing(ctx context.Context, id uuid.UUID, donorID uuid.UUID) error {
	l, err := s.getOwned(ctx, id, donorID)
	if err != nil {
		return err
	}
	if l.Status == StatusClaimed {
		return common.ErrConflict.WithDetails("A claimed listing cannot be deleted. Reject or complete the claim first.")
	}
	if err := s.repo.Delete(ctx, id, donorID); err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteListing(ctx, id); err != nil && !errors.Is(err, ErrSearchUnavailable) {
			s.logger.Warn("Failed to remove listing from search index", zap.String("listingID", id.String()), zap.Error(err))
		}
	}
	if l.ImageURL != nil && s.images != nil {
		if key, ok := s.images.KeyFromURL(*l.ImageURL); ok {
			if err := s.images.DeleteFile(ctx, key); err != nil {
				s.logger.Warn("Failed to delete listing image", zap.String("key", key), zap.Error(err))
			}
		}
	}
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.Event{
		Type: events.TypeListingDeleted, EntityID: id.String(), ActorID: donorID.String(),
	})
	return nil
}

// SearchListings resolves free text through the search index when one is
// configured and falls back to database matching otherwise.
func (s *ServiceImplementation) SearchListings(ctx context.Context, query ListingSearchQuery) ([]FoodListing, *common.Pagination, error) {
	if query.Query != "" && s.indexer != nil {
		ids, err := s.indexer.SearchIDs(ctx, query.Query, common.MaxPageSize*5)
		switch {
		case err == nil && len(ids) == 0:
			return []FoodListing{}, query.Paginate(0), nil
		case err == nil:
			query.IDs = ids
		case errors.Is(err, ErrSearchUnavailable):
		default:
			s.logger.Warn("Search index query failed, falling back to database", zap.Error(err))
		}
	}
	return s.repo.Search(ctx, query, s.now())
}

func (s *ServiceImplementation) GetDonorListings(ctx context.Context, donorID uuid.UUID, query ListingSearchQuery) ([]FoodListing, *common.Pagination, error) {
	query.DonorID = &donorID
	query.IncludeExpired = true
	return s.repo.Search(ctx, query, s.now())
}

// UploadImage stores a photo for the listing and replaces any previous one.
func (s *ServiceImplementation) UploadImage(ctx context.Context, id uuid.UUID, donorID uuid.UUID, file *multipart.FileHeader) (*FoodListing, error) {
	if s.images == nil || !s.images.Enabled() {
		return nil, common.ErrServiceUnavailable.WithDetails("Image uploads are not configured.")
	}
	l, err := s.getOwned(ctx, id, donorID)
	if err != nil {
		return nil, err
	}

	_, url, err := s.images.SaveUploadedFile(ctx, file, fmt.Sprintf("listings/%s", id))
	if err != nil {
		s.logger.Warn("Listing image upload failed", zap.String("listingID", id.String()), zap.Error(err))
		return nil, common.ErrBadRequest.WithDetails(err.Error())
	}

	previous := l.ImageURL
	l.ImageURL = &url
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	if previous != nil {
		if key, ok := s.images.KeyFromURL(*previous); ok {
			if err := s.images.DeleteFile(ctx, key); err != nil {
				s.logger.Warn("Failed to delete replaced listing image", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return l, nil
}

func (s *ServiceImplementation) ClaimIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.MarkClaimedIfAvailable(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.reindexByID(ctx, id)
	return true, nil
}

func (s *ServiceImplementation) Release(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkAvailable(ctx, id); err != nil {
		return err
	}
	s.reindexByID(ctx, id)
	return nil
}

func (s *ServiceImplementation) DonorStats(ctx context.Context, donorID uuid.UUID) (int64, int64, error) {
	active, err := s.repo.CountActiveByDonor(ctx, donorID, s.now())
	if err != nil {
		return 0, 0, err
	}
	total, err := s.repo.CountByDonor(ctx, donorID)
	if err != nil {
		return 0, 0, err
	}
	return active, total, nil
}

func (s *ServiceImplementation) reindex(ctx context.Context, l *FoodListing) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexListing(ctx, l); err != nil && !errors.Is(err, ErrSearchUnavailable) {
		s.logger.Warn("Failed to index listing", zap.String("listingID", l.ID.String()), zap.Error(err))
	}
}

func (s *ServiceImplementation) reindexByID(ctx context.Context, id uuid.UUID) {
	if s.indexer == nil {
		return
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to load listing for reindex", zap.String("listingID", id.String()), zap.Error(err))
		return
	}
	s.reindex(ctx, l)
}
