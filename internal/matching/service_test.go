package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/dispatch"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/llm"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
	"shareaplate_backend/internal/platform/database"
	"shareaplate_backend/internal/profile"
	"shareaplate_backend/internal/recommendation"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []dispatch.Message
	err  error
}

func (d *recordingDispatcher) Notify(_ context.Context, msg dispatch.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

type failingNotifications struct{}

func (failingNotifications) CreateBatch(context.Context, []notification.CreateInput) ([]notification.Notification, error) {
	return nil, errors.New("insert failed")
}

type staticDirectory struct {
	profiles []profile.Profile
}

func (s staticDirectory) ListRecipients(context.Context, string) ([]profile.Profile, error) {
	return s.profiles, nil
}

func (s staticDirectory) GetProfiles(_ context.Context, ids []uuid.UUID) ([]profile.Profile, error) {
	var out []profile.Profile
	for _, p := range s.profiles {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type staticListings map[uuid.UUID]*listing.FoodListing

func (s staticListings) GetListingByID(_ context.Context, id uuid.UUID) (*listing.FoodListing, error) {
	if l, ok := s[id]; ok {
		return l, nil
	}
	return nil, common.ErrNotFound
}

type MatchingServiceTestSuite struct {
	db         *gorm.DB
	gateway    *MockGateway
	dispatcher *recordingDispatcher
	recs       recommendation.Repository
	outcomes   outcome.Repository
	directory  staticDirectory
	listings   staticListings
	cfg        *config.Config
	now        time.Time
	service    *ServiceImplementation
}

func setupMatchingServiceTestSuite(t *testing.T) *MatchingServiceTestSuite {
	db, err := database.OpenSQLiteMemory(&recommendation.Recommendation{}, &recommendation.MatchFeedback{},
		&notification.Notification{}, &outcome.Outcome{})
	require.NoError(t, err)

	ts := &MatchingServiceTestSuite{
		db:         db,
		gateway:    new(MockGateway),
		dispatcher: &recordingDispatcher{},
		recs:       recommendation.NewGORMRepository(db),
		outcomes:   outcome.NewGORMRepository(db),
		listings:   staticListings{},
		cfg: &config.Config{
			MatchNotifyThreshold: 0.7,
			GeminiMatchModel:     "gemini-2.5-flash",
			MatchStrategy:        "proximity_priority",
			MatchPromptVersion:   "v2_location_emphasis",
			AppURL:               "https://shareaplate.test",
		},
		now: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	ts.build(notification.NewService(notification.NewGORMRepository(db), zap.NewNop()))
	return ts
}

func (ts *MatchingServiceTestSuite) build(notifications NotificationWriter) {
	logger := zap.NewNop()
	outcomes := outcome.NewService(ts.outcomes, nil, ts.cfg, logger)
	svc := NewService(ts.gateway, outcomes, ts.recs, notifications, ts.dispatcher, nil,
		ts.listings, &ts.directory, ts.cfg, logger).(*ServiceImplementation)
	svc.now = func() time.Time { return ts.now }
	ts.service = svc
}

func (ts *MatchingServiceTestSuite) request(recipients ...RecipientPayload) MatchRequest {
	return MatchRequest{
		Listing: &ListingPayload{
			ID:         uuid.New().String(),
			Title:      "Jollof Rice Trays",
			FoodType:   "Cooked meal",
			Quantity:   "10 trays",
			ExpiryDate: ts.now.Add(6 * time.Hour),
			Location:   "Yaba",
		},
		Recipients: recipients,
	}
}

func recipient(name, location string) RecipientPayload {
	return RecipientPayload{ID: uuid.New().String(), Name: name, Location: location, Role: "recipient"}
}

func modelReply(entries ...string) string {
	body := ""
	for i, e := range entries {
		if i > 0 {
			body += ","
		}
		body += e
	}
	return "Here you go:\n```json\n{\"recommendations\":[" + body + "]}\n```"
}

func entry(id string, rank int, score float64) string {
	return fmt.Sprintf(`{"recipient_id":%q,"rank":%d,"match_score":%v,"reasoning":"Same location (Yaba)."}`, id, rank, score)
}

func (ts *MatchingServiceTestSuite) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ts.db.Model(model).Count(&n).Error)
	return n
}

func TestMatchFood_NotifiesOnlyAboveThreshold(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	near := recipient("Yaba Shelter", "Yaba")
	far := recipient("Lekki Kitchen", "Lekki")
	req := ts.request(near, far)

	nearID := uuid.MustParse(near.ID)
	fcm := "fcm-token"
	ts.directory.profiles = []profile.Profile{{BaseModel: common.BaseModel{ID: nearID}, Name: "Yaba Shelter", FCMToken: &fcm}}

	ts.gateway.On("Generate", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
		return r.JSON && r.Model == "gemini-2.5-flash" && r.Metadata["strategy_used"] == "proximity_priority"
	})).Return(modelReply(entry(near.ID, 1, 0.95), entry(far.ID, 2, 0.65)), nil).Once()

	result, err := ts.service.MatchFood(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotifiedCount)
	assert.Equal(t, "AI matching complete. 1 recipients notified.", result.Message)
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, recommendation.StatusNotified, result.Recommendations[0].Status)
	assert.Equal(t, "Yaba Shelter", result.Recommendations[0].RecipientName)
	assert.Equal(t, recommendation.StatusPending, result.Recommendations[1].Status)

	stored, err := ts.recs.ListByListing(context.Background(), uuid.MustParse(req.Listing.ID))
	require.NoError(t, err)
	require.Len(t, stored, 2)
	byRecipient := map[uuid.UUID]recommendation.Recommendation{}
	for _, r := range stored {
		byRecipient[r.RecipientID] = r
	}
	assert.Equal(t, recommendation.StatusNotified, byRecipient[nearID].Status)
	assert.NotNil(t, byRecipient[nearID].NotifiedAt)
	assert.Equal(t, recommendation.StatusPending, byRecipient[uuid.MustParse(far.ID)].Status)

	var notes []notification.Notification
	require.NoError(t, ts.db.Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, nearID, notes[0].RecipientID)
	assert.Equal(t, "New Food Match: Jollof Rice Trays", notes[0].Title)
	assert.Contains(t, notes[0].Message, "95% match.")
	require.NotNil(t, notes[0].RecommendationID)
	assert.Equal(t, byRecipient[nearID].ID, *notes[0].RecommendationID)

	o, err := ts.outcomes.FindByListingID(context.Background(), uuid.MustParse(req.Listing.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, o.NotifiedCount)

	require.Len(t, ts.dispatcher.sent, 1)
	assert.Equal(t, "New Food Available: Jollof Rice Trays", ts.dispatcher.sent[0].Subject)
	assert.Equal(t, "fcm-token", ts.dispatcher.sent[0].To.FCMToken)
}

func TestMatchFood_ThreeWellFormedRecommendations(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	a, b, c := recipient("A", "Yaba"), recipient("B", "Yaba"), recipient("C", "Ikeja")
	ts.gateway.On("Generate", mock.Anything, mock.Anything).
		Return(modelReply(entry(a.ID, 1, 0.97), entry(b.ID, 2, 0.91), entry(c.ID, 3, 0.7)), nil).Once()

	result, err := ts.service.MatchFood(context.Background(), ts.request(a, b, c))
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 3)

	ranks := map[int]bool{}
	for _, r := range result.Recommendations {
		assert.GreaterOrEqual(t, r.MatchScore, 0.0)
		assert.LessOrEqual(t, r.MatchScore, 1.0)
		ranks[r.Rank] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, ranks)
	assert.Equal(t, 2, result.NotifiedCount, "a score equal to the threshold is not a top match")
	assert.EqualValues(t, 3, ts.count(t, &recommendation.Recommendation{}))
}

func TestMatchFood_AllHallucinatedIsEmptySuccess(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	ts.gateway.On("Generate", mock.Anything, mock.Anything).
		Return(modelReply(entry(uuid.New().String(), 1, 0.99)), nil).Once()

	result, err := ts.service.MatchFood(context.Background(), ts.request(recipient("A", "Yaba")))
	require.NoError(t, err)
	assert.Empty(t, result.Recommendations)
	assert.NotNil(t, result.Recommendations)
	assert.Equal(t, 0, result.NotifiedCount)
	assert.EqualValues(t, 0, ts.count(t, &recommendation.Recommendation{}))
	assert.EqualValues(t, 1, ts.count(t, &outcome.Outcome{}))
}

func TestMatchFood_UpstreamFailureWritesNothing(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	ts.gateway.On("Generate", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("%w: %w", llm.ErrUpstream, llm.ErrTimeout)).Once()

	_, err := ts.service.MatchFood(context.Background(), ts.request(recipient("A", "Yaba")))
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeUpstream))
	assert.EqualValues(t, 0, ts.count(t, &recommendation.Recommendation{}))
	assert.EqualValues(t, 0, ts.count(t, &notification.Notification{}))
	assert.EqualValues(t, 0, ts.count(t, &outcome.Outcome{}))
}

func TestMatchFood_Validation(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)

	_, err := ts.service.MatchFood(context.Background(), MatchRequest{Recipients: []RecipientPayload{recipient("A", "Yaba")}})
	assert.True(t, common.HasCode(err, common.CodeValidation))

	_, err = ts.service.MatchFood(context.Background(), ts.request())
	assert.True(t, common.HasCode(err, common.CodeValidation))

	ts.gateway.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestMatchFood_NotificationFailureKeepsPendingRecommendations(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	ts.build(failingNotifications{})
	a := recipient("A", "Yaba")
	ts.gateway.On("Generate", mock.Anything, mock.Anything).
		Return(modelReply(entry(a.ID, 1, 0.95)), nil).Once()

	req := ts.request(a)
	result, err := ts.service.MatchFood(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NotifiedCount)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, recommendation.StatusPending, result.Recommendations[0].Status)
	assert.Empty(t, ts.dispatcher.sent)

	o, err := ts.outcomes.FindByListingID(context.Background(), uuid.MustParse(req.Listing.ID))
	require.NoError(t, err)
	assert.Equal(t, 0, o.NotifiedCount)
}

func TestMatchFood_DispatchFailureIsAbsorbed(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	ts.dispatcher.err = errors.New("smtp down")
	a := recipient("A", "Yaba")
	ts.gateway.On("Generate", mock.Anything, mock.Anything).
		Return(modelReply(entry(a.ID, 1, 0.95)), nil).Once()

	result, err := ts.service.MatchFood(context.Background(), ts.request(a))
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotifiedCount)
}

func TestMatchFood_RepeatedRunsReuseOutcome(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	a := recipient("A", "Yaba")
	req := ts.request(a)
	ts.gateway.On("Generate", mock.Anything, mock.Anything).
		Return(modelReply(entry(a.ID, 1, 0.95)), nil).Twice()

	_, err := ts.service.MatchFood(context.Background(), req)
	require.NoError(t, err)
	_, err = ts.service.MatchFood(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 1, ts.count(t, &outcome.Outcome{}))
}

func TestMatchListing(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	donorID := uuid.New()
	l := &listing.FoodListing{
		DonorID:    donorID,
		Title:      "Bread",
		ExpiryDate: ts.now.Add(3 * time.Hour),
		Location:   "Surulere",
		Status:     listing.StatusAvailable,
	}
	l.ID = uuid.New()
	ts.listings[l.ID] = l

	recipientID := uuid.New()
	ts.directory.profiles = []profile.Profile{{BaseModel: common.BaseModel{ID: recipientID}, Name: "Surulere Pantry", Location: "Surulere", Role: common.RoleRecipient}}

	_, err := ts.service.MatchListing(context.Background(), l.ID, uuid.New(), common.RoleDonor)
	assert.ErrorIs(t, err, common.ErrForbidden)

	ts.gateway.On("Generate", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
		return r.Metadata["food_listing_id"] == l.ID.String()
	})).Return(modelReply(entry(recipientID.String(), 1, 0.92)), nil).Once()

	result, err := ts.service.MatchListing(context.Background(), l.ID, donorID, common.RoleDonor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotifiedCount)
	require.Len(t, ts.dispatcher.sent, 1)
	assert.Equal(t, "Surulere Pantry", ts.dispatcher.sent[0].To.Name)
}

func TestLogMatchOutcome(t *testing.T) {
	ts := setupMatchingServiceTestSuite(t)
	ctx := context.Background()

	err := ts.service.LogMatchOutcome(ctx, uuid.New(), FeedbackRequest{RecommendationID: uuid.New(), Outcome: "claimed"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	rec := []recommendation.Recommendation{{ListingID: uuid.New(), RecipientID: uuid.New(), Rank: 1, MatchScore: 0.9, Status: recommendation.StatusNotified}}
	require.NoError(t, ts.recs.CreateBatch(ctx, rec))

	seconds := 540
	require.NoError(t, ts.service.LogMatchOutcome(ctx, uuid.New(), FeedbackRequest{RecommendationID: rec[0].ID, Outcome: "claimed", TimeToAction: &seconds}))

	var stored []recommendation.MatchFeedback
	require.NoError(t, ts.db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, recommendation.FeedbackClaimed, stored[0].Outcome)
	require.NotNil(t, stored[0].TimeToActionSeconds)
	assert.Equal(t, 540, *stored[0].TimeToActionSeconds)
}
