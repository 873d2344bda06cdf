package listing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/platform/database"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	db, err := database.OpenSQLiteMemory(&FoodListing{})
	require.NoError(t, err)
	return NewGORMRepository(db)
}

func seedListing(t *testing.T, repo Repository, donorID uuid.UUID, title string, expiry time.Time, status ListingStatus) *FoodListing {
	t.Helper()
	l := &FoodListing{
		DonorID:     donorID,
		Title:       title,
		FoodType:    "Produce",
		Quantity:    "1 box",
		ExpiryDate:  expiry,
		Location:    "Surulere",
		DietaryTags: DietaryTags{"vegan", "gluten-free"},
		Status:      status,
	}
	require.NoError(t, repo.Create(context.Background(), l))
	return l
}

func TestRepository_DietaryTagsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()
	l := seedListing(t, repo, uuid.New(), "Apples", now.Add(time.Hour), StatusAvailable)

	found, err := repo.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, DietaryTags{"vegan", "gluten-free"}, found.DietaryTags)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRepository_MarkClaimedIfAvailable_SingleWinner(t *testing.T) {
	repo := newTestRepository(t)
	l := seedListing(t, repo, uuid.New(), "Bread", time.Now().UTC().Add(time.Hour), StatusAvailable)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkClaimedIfAvailable(context.Background(), l.ID)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)

	require.NoError(t, repo.MarkAvailable(context.Background(), l.ID))
	found, err := repo.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, found.Status)
}

func TestRepository_UpdateKeepsClaimStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	l := seedListing(t, repo, uuid.New(), "Rice", time.Now().UTC().Add(time.Hour), StatusAvailable)

	stale, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)

	ok, err := repo.MarkClaimedIfAvailable(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, ok)

	stale.Title = "Jollof rice"
	stale.DietaryTags = DietaryTags{"halal"}
	require.NoError(t, repo.Update(ctx, stale))
	assert.Equal(t, StatusClaimed, stale.Status)

	found, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, found.Status)
	assert.Equal(t, "Jollof rice", found.Title)
	assert.Equal(t, DietaryTags{"halal"}, found.DietaryTags)
}

func TestRepository_Search_FiltersExpiredAndStatus(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()
	donorID := uuid.New()
	seedListing(t, repo, donorID, "Fresh Apples", now.Add(2*time.Hour), StatusAvailable)
	seedListing(t, repo, donorID, "Old Apples", now.Add(-2*time.Hour), StatusAvailable)
	seedListing(t, repo, uuid.New(), "Claimed Apples", now.Add(2*time.Hour), StatusClaimed)

	listings, pagination, err := repo.Search(context.Background(), ListingSearchQuery{Query: "apples", Status: string(StatusAvailable)}, now)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Fresh Apples", listings[0].Title)
	assert.Equal(t, int64(1), pagination.TotalItems)

	listings, _, err = repo.Search(context.Background(), ListingSearchQuery{DonorID: &donorID, IncludeExpired: true}, now)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestRepository_DonorCountsAndExpired(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()
	donorID := uuid.New()
	seedListing(t, repo, donorID, "A", now.Add(time.Hour), StatusAvailable)
	seedListing(t, repo, donorID, "B", now.Add(-time.Hour), StatusAvailable)
	seedListing(t, repo, donorID, "C", now.Add(time.Hour), StatusClaimed)

	active, err := repo.CountActiveByDonor(context.Background(), donorID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	total, err := repo.CountByDonor(context.Background(), donorID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	expired, err := repo.FindExpiredAvailable(context.Background(), now, 0, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "B", expired[0].Title)
}

func TestRepository_DeleteRequiresOwner(t *testing.T) {
	repo := newTestRepository(t)
	donorID := uuid.New()
	l := seedListing(t, repo, donorID, "Soup", time.Now().UTC().Add(time.Hour), StatusAvailable)

	err := repo.Delete(context.Background(), l.ID, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, repo.Delete(context.Background(), l.ID, donorID))
}
