package listing

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/events"
)

// MockListingRepository is a mock type for listing.Repository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *FoodListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*FoodListing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FoodListing), args.Error(1)
}

func (m *MockListingRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]FoodListing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FoodListing), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *FoodListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID, donorID uuid.UUID) error {
	args := m.Called(ctx, id, donorID)
	return args.Error(0)
}

func (m *MockListingRepository) Search(ctx context.Context, query ListingSearchQuery, now time.Time) ([]FoodListing, *common.Pagination, error) {
	args := m.Called(ctx, query, now)
	var listings []FoodListing
	if args.Get(0) != nil {
		listings = args.Get(0).([]FoodListing)
	}
	var pagination *common.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*common.Pagination)
	}
	return listings, pagination, args.Error(2)
}

func (m *MockListingRepository) MarkClaimedIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) MarkAvailable(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) CountByDonorSince(ctx context.Context, donorID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, donorID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) CountByDonor(ctx context.Context, donorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, donorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) CountActiveByDonor(ctx context.Context, donorID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, donorID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) FindExpiredAvailable(ctx context.Context, now time.Time, offset, limit int) ([]FoodListing, error) {
	args := m.Called(ctx, now, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FoodListing), args.Error(1)
}

func (m *MockListingRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]FoodListing, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FoodListing), args.Error(1)
}

// MockIndexer is a mock type for listing.Indexer
type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexListing(ctx context.Context, l *FoodListing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockIndexer) DeleteListing(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIndexer) SearchIDs(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockImageStore is a mock type for listing.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockImageStore) SaveUploadedFile(ctx context.Context, fh *multipart.FileHeader, prefix string) (string, string, error) {
	args := m.Called(ctx, fh, prefix)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockImageStore) DeleteFile(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockImageStore) KeyFromURL(url string) (string, bool) {
	args := m.Called(url)
	return args.String(0), args.Bool(1)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

type ListingServiceTestSuite struct {
	service   *ServiceImplementation
	repo      *MockListingRepository
	indexer   *MockIndexer
	images    *MockImageStore
	publisher *recordingPublisher
	now       time.Time
}

func setupListingServiceTestSuite(t *testing.T) *ListingServiceTestSuite {
	ts := &ListingServiceTestSuite{
		repo:      new(MockListingRepository),
		indexer:   new(MockIndexer),
		images:    new(MockImageStore),
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := NewService(ts.repo, ts.indexer, ts.images, ts.publisher, zap.NewNop()).(*ServiceImplementation)
	svc.now = func() time.Time { return ts.now }
	ts.service = svc
	return ts
}

func (ts *ListingServiceTestSuite) listing(donorID uuid.UUID, status ListingStatus) *FoodListing {
	l := &FoodListing{
		DonorID:    donorID,
		Title:      "Fresh Bagels",
		FoodType:   "Bakery",
		Quantity:   "2 dozen",
		ExpiryDate: ts.now.Add(6 * time.Hour),
		Location:   "Yaba",
		Status:     status,
	}
	l.ID = uuid.New()
	return l
}

func TestService_CreateListing_Success(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	donorID := uuid.New()
	req := CreateListingRequest{
		Title:       "  Fresh Bagels ",
		FoodType:    "Bakery",
		Quantity:    "2 dozen",
		ExpiryDate:  ts.now.Add(4 * time.Hour),
		Location:    "Yaba",
		DietaryTags: []string{"vegetarian"},
	}

	ts.repo.On("Create", mock.Anything, mock.AnythingOfType("*listing.FoodListing")).Return(nil).Once()
	ts.indexer.On("IndexListing", mock.Anything, mock.AnythingOfType("*listing.FoodListing")).Return(nil).Once()

	l, err := ts.service.CreateListing(context.Background(), donorID, req)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Bagels", l.Title)
	assert.Equal(t, StatusAvailable, l.Status)
	assert.Equal(t, donorID, l.DonorID)
	assert.Contains(t, l.Slug, "fresh-bagels-")
	assert.Equal(t, DietaryTags{"vegetarian"}, l.DietaryTags)

	require.Len(t, ts.publisher.events, 1)
	assert.Equal(t, events.TypeListingCreated, ts.publisher.events[0].Type)
	ts.repo.AssertExpectations(t)
	ts.indexer.AssertExpectations(t)
}

func TestService_CreateListing_PastExpiryRejected(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	req := CreateListingRequest{Title: "Soup", ExpiryDate: ts.now.Add(-time.Minute), Location: "Surulere"}

	_, err := ts.service.CreateListing(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeValidation))
	ts.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_CreateListing_IndexFailureDoesNotFailWrite(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	req := CreateListingRequest{Title: "Soup", ExpiryDate: ts.now.Add(time.Hour), Location: "Surulere"}

	ts.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	ts.indexer.On("IndexListing", mock.Anything, mock.Anything).Return(errors.New("es down")).Once()

	l, err := ts.service.CreateListing(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestService_UpdateListing_NotOwner(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	l := ts.listing(uuid.New(), StatusAvailable)
	ts.repo.On("FindByID", mock.Anything, l.ID).Return(l, nil).Once()

	title := "New title"
	_, err := ts.service.UpdateListing(context.Background(), l.ID, uuid.New(), UpdateListingRequest{Title: &title})
	assert.True(t, errors.Is(err, common.ErrForbidden))
	ts.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_UpdateListing_AppliesFields(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	donorID := uuid.New()
	l := ts.listing(donorID, StatusAvailable)
	ts.repo.On("FindByID", mock.Anything, l.ID).Return(l, nil).Once()
	ts.repo.On("Update", mock.Anything, l).Return(nil).Once()
	ts.indexer.On("IndexListing", mock.Anything, l).Return(nil).Once()

	title, location := "Leftover Pizza", "Lekki"
	updated, err := ts.service.UpdateListing(context.Background(), l.ID, donorID, UpdateListingRequest{Title: &title, Location: &location})
	require.NoError(t, err)
	assert.Equal(t, "Leftover Pizza", updated.Title)
	assert.Equal(t, "Lekki", updated.Location)
	assert.Contains(t, updated.Slug, "leftover-pizza-")
	assert.Equal(t, "Bakery", updated.FoodType)
}

func TestService_DeleteListing_ClaimedIsConflict(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	donorID := uuid.New()
	l := ts.listing(donorID, StatusClaimed)
	ts.repo.On("FindByID", mock.Anything, l.ID).Return(l, nil).Once()

	err := ts.service.DeleteListing(context.Background(), l.ID, donorID)
	assert.True(t, errors.Is(err, common.ErrConflict))
	ts.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_DeleteListing_RemovesImageAndIndexEntry(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	donorID := uuid.New()
	l := ts.listing(donorID, StatusAvailable)
	url := "https://cdn.example.com/listings/abc.jpg"
	l.ImageURL = &url

	ts.repo.On("FindByID", mock.Anything, l.ID).Return(l, nil).Once()
	ts.repo.On("Delete", mock.Anything, l.ID, donorID).Return(nil).Once()
	ts.indexer.On("DeleteListing", mock.Anything, l.ID).Return(nil).Once()
	ts.images.On("KeyFromURL", url).Return("listings/abc.jpg", true).Once()
	ts.images.On("DeleteFile", mock.Anything, "listings/abc.jpg").Return(nil).Once()

	require.NoError(t, ts.service.DeleteListing(context.Background(), l.ID, donorID))
	ts.indexer.AssertExpectations(t)
	ts.images.AssertExpectations(t)
	require.Len(t, ts.publisher.events, 1)
	assert.Equal(t, events.TypeListingDeleted, ts.publisher.events[0].Type)
}

func TestService_SearchListings_UsesIndexIDs(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	query := ListingSearchQuery{Query: "bagels"}

	ts.indexer.On("SearchIDs", mock.Anything, "bagels", mock.AnythingOfType("int")).Return(ids, nil).Once()
	ts.repo.On("Search", mock.Anything, mock.MatchedBy(func(q ListingSearchQuery) bool {
		return len(q.IDs) == 2 && q.IDs[0] == ids[0]
	}), ts.now).Return([]FoodListing{}, common.NewPagination(0, 1, 10), nil).Once()

	_, _, err := ts.service.SearchListings(context.Background(), query)
	require.NoError(t, err)
	ts.repo.AssertExpectations(t)
}

func TestService_SearchListings_NoIndexHitsShortCircuits(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ts.indexer.On("SearchIDs", mock.Anything, "caviar", mock.Anything).Return([]uuid.UUID{}, nil).Once()

	listings, pagination, err := ts.service.SearchListings(context.Background(), ListingSearchQuery{Query: "caviar"})
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, int64(0), pagination.TotalItems)
	ts.repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SearchListings_IndexUnavailableFallsBackToDatabase(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	query := ListingSearchQuery{Query: "soup"}
	ts.indexer.On("SearchIDs", mock.Anything, "soup", mock.Anything).Return(nil, ErrSearchUnavailable).Once()
	ts.repo.On("Search", mock.Anything, mock.MatchedBy(func(q ListingSearchQuery) bool {
		return q.Query == "soup" && q.IDs == nil
	}), ts.now).Return([]FoodListing{*ts.listing(uuid.New(), StatusAvailable)}, common.NewPagination(1, 1, 10), nil).Once()

	listings, _, err := ts.service.SearchListings(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestService_ClaimIfAvailable(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	l := ts.listing(uuid.New(), StatusClaimed)

	ts.repo.On("MarkClaimedIfAvailable", mock.Anything, l.ID).Return(true, nil).Once()
	ts.repo.On("FindByID", mock.Anything, l.ID).Return(l, nil).Once()
	ts.indexer.On("IndexListing", mock.Anything, l).Return(nil).Once()

	ok, err := ts.service.ClaimIfAvailable(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ts.repo.On("MarkClaimedIfAvailable", mock.Anything, l.ID).Return(false, nil).Once()
	ok, err = ts.service.ClaimIfAvailable(context.Background(), l.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ts.indexer.AssertNumberOfCalls(t, "IndexListing", 1)
}

func TestService_UploadImage_Disabled(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ts.images.On("Enabled").Return(false).Once()

	_, err := ts.service.UploadImage(context.Background(), uuid.New(), uuid.New(), &multipart.FileHeader{})
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))
}

func TestService_UploadImage_ReplacesPrevious(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	donorID := uuid.New()
	l := ts.listing(donorID, StatusAvailable)
	old := "https://cdn.example.com/listings/old.png"
	l.ImageURL = &old
	fh := &multipart.FileHeader{Filename: "new.jpg"}

	ts.images.On("Enabled").Return(true).Once()
	ts.repo.On("FindByID", mock.Anything, l.ID).Return(l, nil).Once()
	ts.images.On("SaveUploadedFile", mock.Anything, fh, "listings/"+l.ID.String()).
		Return("listings/new.jpg", "https://cdn.example.com/listings/new.jpg", nil).Once()
	ts.repo.On("Update", mock.Anything, l).Return(nil).Once()
	ts.images.On("KeyFromURL", old).Return("listings/old.png", true).Once()
	ts.images.On("DeleteFile", mock.Anything, "listings/old.png").Return(nil).Once()

	updated, err := ts.service.UploadImage(context.Background(), l.ID, donorID, fh)
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, "https://cdn.example.com/listings/new.jpg", *updated.ImageURL)
	ts.images.AssertExpectations(t)
}

func TestService_DonorStats(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	donorID := uuid.New()
	ts.repo.On("CountActiveByDonor", mock.Anything, donorID, ts.now).Return(int64(2), nil).Once()
	ts.repo.On("CountByDonor", mock.Anything, donorID).Return(int64(9), nil).Once()

	active, total, err := ts.service.DonorStats(context.Background(), donorID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
	assert.Equal(t, int64(9), total)
}
