// File: internal/matching/service.go
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/dispatch"
	"shareaplate_backend/internal/events"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/llm"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
	"shareaplate_backend/internal/parser"
	"shareaplate_backend/internal/profile"
	"shareaplate_backend/internal/prompt"
	"shareaplate_backend/internal/recommendation"
)

// OutcomeBookkeeper keeps the per-listing outcome record in step with matching.
type OutcomeBookkeeper interface {
	EnsureForMatch(ctx context.Context, listingID uuid.UUID, strategy, promptVersion string) (*outcome.Outcome, error)
	SetNotifiedCount(ctx context.Context, listingID uuid.UUID, count int) error
}

// NotificationWriter bulk-creates in-app notifications.
type NotificationWriter interface {
	CreateBatch(ctx context.Context, inputs []notification.CreateInput) ([]notification.Notification, error)
}

// ListingLookup loads stored listings.
type ListingLookup interface {
	GetListingByID(ctx context.Context, id uuid.UUID) (*listing.FoodListing, error)
}

// ProfileDirectory resolves recipients and their contact channels.
type ProfileDirectory interface {
	ListRecipients(ctx context.Context, location string) ([]profile.Profile, error)
	GetProfiles(ctx context.Context, ids []uuid.UUID) ([]profile.Profile, error)
}

// Service runs the AI matching pipeline.
type Service interface {
	MatchFood(ctx context.Context, req MatchRequest) (*MatchResult, error)
	MatchListing(ctx context.Context, listingID, actorID uuid.UUID, actorRole string) (*MatchResult, error)
	LogMatchOutcome(ctx context.Context, actorID uuid.UUID, req FeedbackRequest) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	gateway       llm.Gateway
	outcomes      OutcomeBookkeeper
	recs          recommendation.Repository
	notifications NotificationWriter
	dispatcher    dispatch.Dispatcher
	publisher     events.Publisher
	listings      ListingLookup
	profiles      ProfileDirectory

	threshold     float64
	model         string
	strategy      string
	promptVersion string
	appURL        string

	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new matching service.
func NewService(
	gateway llm.Gateway,
	outcomes OutcomeBookkeeper,
	recs recommendation.Repository,
	notifications NotificationWriter,
	dispatcher dispatch.Dispatcher,
	publisher events.Publisher,
	listings ListingLookup,
	profiles ProfileDirectory,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		gateway:       gateway,
		outcomes:      outcomes,
		recs:          recs,
		notifications: notifications,
		dispatcher:    dispatcher,
		publisher:     publisher,
		listings:      listings,
		profiles:      profiles,
		threshold:     cfg.MatchNotifyThreshold,
		model:         cfg.GeminiMatchModel,
		strategy:      cfg.MatchStrategy,
		promptVersion: cfg.MatchPromptVersion,
		appURL:        cfg.AppURL,
		logger:        logger.Named("matching_service"),
		now:           time.Now,
	}
}

func completeMessage(n int) string {
	return fmt.Sprintf("AI matching complete. %d recipients notified.", n)
}

func validate(req MatchRequest) (uuid.UUID, error) {
	if req.Listing == nil || req.Listing.ID == "" {
		return uuid.Nil, common.NewValidationError(map[string]string{"listing": "A listing with an id is required."})
	}
	listingID, err := uuid.Parse(req.Listing.ID)
	if err != nil {
		return uuid.Nil, common.NewValidationError(map[string]string{"listing.id": "The listing id must be a valid UUID."})
	}
	if len(req.Recipients) == 0 {
		return uuid.Nil, common.NewValidationError(map[string]string{"recipients": "At least one recipient is required."})
	}
	for i, r := range req.Recipients {
		if _, err := uuid.Parse(r.ID); err != nil {
			return uuid.Nil, common.NewValidationError(map[string]string{
				fmt.Sprintf("recipients[%d].id", i): "The recipient id must be a valid UUID.",
			})
		}
	}
	return listingID, nil
}

// MatchFood ranks recipients for a listing, stores the ranking and notifies
// the top matches. Only validation and model failures are returned as errors;
// bookkeeping failures after the model call are logged and absorbed.
func (s *ServiceImplementation) MatchFood(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	listingID, err := validate(req)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("listingID", listingID.String()), zap.Int("candidates", len(req.Recipients)))

	cands := candidates(req.Recipients)
	text := prompt.BuildMatchingPrompt(req.Listing.promptInput(), cands, s.now())

	raw, err := s.gateway.Generate(ctx, llm.Request{
		Prompt: text,
		Model:  s.model,
		JSON:   true,
		Metadata: map[string]string{
			"strategy_used":   s.strategy,
			"food_listing_id": listingID.String(),
			"prompt_version":  s.promptVersion,
			"location":        req.Listing.Location,
		},
	})
	if err != nil {
		log.Error("Matching aborted: language model call failed", zap.Error(err))
		if errors.Is(err, llm.ErrTimeout) {
			return nil, common.NewUpstreamError("The matching model timed out. Please try again.")
		}
		return nil, common.NewUpstreamError("Failed to generate recommendations.")
	}

	parsed := parser.ParseRecommendations(raw, cands)

	if _, err := s.outcomes.EnsureForMatch(ctx, listingID, s.strategy, s.promptVersion); err != nil {
		log.Warn("Failed to record matching outcome", zap.Error(err))
	}

	result := &MatchResult{Recommendations: []recommendation.Recommendation{}, Message: completeMessage(0)}
	if len(parsed) == 0 {
		log.Info("No actionable matches in model response")
		return result, nil
	}

	recs := make([]recommendation.Recommendation, 0, len(parsed))
	for _, p := range parsed {
		recipientID, _ := uuid.Parse(p.RecipientID)
		recs = append(recs, recommendation.Recommendation{
			ListingID:         listingID,
			RecipientID:       recipientID,
			Rank:              p.Rank,
			MatchScore:        p.MatchScore,
			Reasoning:         p.Reasoning,
			Status:            recommendation.StatusPending,
			RecipientName:     p.RecipientName,
			RecipientLocation: p.RecipientLocation,
		})
	}
	if err := s.recs.CreateBatch(ctx, recs); err != nil {
		log.Error("Failed to save recommendations", zap.Error(err))
		return result, nil
	}
	result.Recommendations = recs

	var top []int
	for i := range recs {
		if recs[i].MatchScore > s.threshold {
			top = append(top, i)
		}
	}
	if len(top) == 0 {
		log.Info("Matching stored recommendations; none above the notification threshold", zap.Int("stored", len(recs)))
		return result, nil
	}

	inputs := make([]notification.CreateInput, 0, len(top))
	for _, i := range top {
		rec := recs[i]
		recID := rec.ID
		inputs = append(inputs, notification.CreateInput{
			RecipientID:      rec.RecipientID,
			ListingID:        &listingID,
			RecommendationID: &recID,
			Type:             notification.TypeRecommendation,
			Title:            "New Food Match: " + req.Listing.Title,
			Message: fmt.Sprintf("You were recommended for a nearby food listing! %d%% match. %s",
				percent(rec.MatchScore), rec.Reasoning),
		})
	}
	if _, err := s.notifications.CreateBatch(ctx, inputs); err != nil {
		log.Error("Failed to create match notifications; recommendations stay pending", zap.Error(err))
		return result, nil
	}
	result.NotifiedCount = len(top)
	result.Message = completeMessage(result.NotifiedCount)

	if err := s.outcomes.SetNotifiedCount(ctx, listingID, result.NotifiedCount); err != nil {
		log.Warn("Failed to update outcome notified count", zap.Error(err))
	}

	notifiedAt := s.now().UTC()
	ids := make([]uuid.UUID, 0, len(top))
	for _, i := range top {
		ids = append(ids, recs[i].ID)
	}
	if err := s.recs.MarkNotified(ctx, ids, notifiedAt); err != nil {
		log.Warn("Failed to mark recommendations notified", zap.Error(err))
	} else {
		for _, i := range top {
			result.Recommendations[i].Status = recommendation.StatusNotified
			result.Recommendations[i].NotifiedAt = &notifiedAt
		}
	}

	s.dispatchTop(ctx, req, recs, top)

	recipientIDs := make([]string, 0, len(top))
	for _, i := range top {
		recipientIDs = append(recipientIDs, recs[i].RecipientID.String())
	}
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.Event{
		Type:     events.TypeRecommendationsNotified,
		EntityID: listingID.String(),
		Payload: map[string]interface{}{
			"notified_count": result.NotifiedCount,
			"recipient_ids":  recipientIDs,
			"strategy":       s.strategy,
		},
	})

	log.Info("Matching complete", zap.Int("stored", len(recs)), zap.Int("notified", result.NotifiedCount))
	return result, nil
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}

// dispatchTop sends the external notification for each top match in rank
// order. Failures are logged only.
func (s *ServiceImplementation) dispatchTop(ctx context.Context, req MatchRequest, recs []recommendation.Recommendation, top []int) {
	if s.dispatcher == nil {
		return
	}
	contacts := s.contacts(ctx, req.Recipients, recs, top)
	for _, i := range top {
		rec := recs[i]
		to, ok := contacts[rec.RecipientID]
		if !ok {
			continue
		}
		msg := dispatch.MatchMessage(to, dispatch.MatchDetails{
			ListingID:    req.Listing.ID,
			ListingTitle: req.Listing.Title,
			Location:     req.Listing.Location,
			Score:        rec.MatchScore,
			Reasoning:    rec.Reasoning,
			AppURL:       s.appURL,
		})
		if err := s.dispatcher.Notify(ctx, msg); err != nil {
			s.logger.Warn("Failed to dispatch match notification",
				zap.String("recipientID", rec.RecipientID.String()), zap.Error(err))
		}
	}
}

// contacts starts from the request payload and fills in stored channels
// (push token, Telegram chat) from recipient profiles when available.
func (s *ServiceImplementation) contacts(ctx context.Context, payload []RecipientPayload, recs []recommendation.Recommendation, top []int) map[uuid.UUID]dispatch.Contact {
	out := make(map[uuid.UUID]dispatch.Contact, len(top))
	wanted := make(map[uuid.UUID]bool, len(top))
	ids := make([]uuid.UUID, 0, len(top))
	for _, i := range top {
		wanted[recs[i].RecipientID] = true
		ids = append(ids, recs[i].RecipientID)
	}
	for _, r := range payload {
		id, err := uuid.Parse(r.ID)
		if err != nil || !wanted[id] {
			continue
		}
		out[id] = dispatch.Contact{ProfileID: id, Name: r.Name, Email: r.Email}
	}

	if s.profiles == nil {
		return out
	}
	profiles, err := s.profiles.GetProfiles(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load recipient contact details", zap.Error(err))
		return out
	}
	for _, p := range profiles {
		c := out[p.ID]
		c.ProfileID = p.ID
		if c.Name == "" {
			c.Name = p.DisplayName()
		}
		if c.Email == "" && p.Email != nil {
			c.Email = *p.Email
		}
		if p.FCMToken != nil {
			c.FCMToken = *p.FCMToken
		}
		if p.TelegramChatID != nil {
			c.TelegramChatID = *p.TelegramChatID
		}
		out[p.ID] = c
	}
	return out
}

// MatchListing runs matching for a stored listing against every recipient
// profile. Only the listing's donor or an admin may trigger it.
func (s *ServiceImplementation) MatchListing(ctx context.Context, listingID, actorID uuid.UUID, actorRole string) (*MatchResult, error) {
	l, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.DonorID != actorID && actorRole != common.RoleAdmin {
		return nil, common.ErrForbidden.WithDetails("You do not own this listing.")
	}
	if l.Status != listing.StatusAvailable {
		return nil, common.ErrConflict.WithDetails("Only available listings can be matched.")
	}

	profiles, err := s.profiles.ListRecipients(ctx, "")
	if err != nil {
		return nil, err
	}
	recipients := make([]RecipientPayload, 0, len(profiles))
	for _, p := range profiles {
		r := RecipientPayload{ID: p.ID.String(), Name: p.DisplayName(), Location: p.Location, Role: p.Role}
		if p.Email != nil {
			r.Email = *p.Email
		}
		recipients = append(recipients, r)
	}

	return s.MatchFood(ctx, MatchRequest{
		Listing: &ListingPayload{
			ID:          l.ID.String(),
			DonorID:     l.DonorID.String(),
			Title:       l.Title,
			FoodType:    l.FoodType,
			Quantity:    l.Quantity,
			Description: l.Description,
			ExpiryDate:  l.ExpiryDate,
			Location:    l.Location,
			DietaryTags: []string(l.DietaryTags),
		},
		Recipients: recipients,
	})
}

// LogMatchOutcome stores what a recipient did with a recommendation.
func (s *ServiceImplementation) LogMatchOutcome(ctx context.Context, actorID uuid.UUID, req FeedbackRequest) error {
	rec, err := s.recs.FindByID(ctx, req.RecommendationID)
	if err != nil {
		return err
	}
	fb := &recommendation.MatchFeedback{
		RecommendationID:    rec.ID,
		Outcome:             recommendation.FeedbackOutcome(req.Outcome),
		TimeToActionSeconds: req.TimeToAction,
		Metadata: datatypes.JSONMap{
			"reported_by": actorID.String(),
			"listing_id":  rec.ListingID.String(),
			"match_score": rec.MatchScore,
		},
	}
	if err := s.recs.CreateFeedback(ctx, fb); err != nil {
		s.logger.Error("Failed to store match feedback", zap.String("recommendationID", rec.ID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("Match outcome recorded",
		zap.String("recommendationID", rec.ID.String()),
		zap.String("outcome", req.Outcome),
	)
	return nil
}
