// File: internal/claim/service.go
package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/events"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
)

// ListingGateway is the slice of the listing service the claim manager needs.
type ListingGateway interface {
	GetListingByID(ctx context.Context, id uuid.UUID) (*listing.FoodListing, error)
	ClaimIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

// OutcomeRecorder records that a listing was claimed.
type OutcomeRecorder interface {
	RecordClaim(ctx context.Context, listingID uuid.UUID, claimTime *time.Time) (*outcome.Outcome, error)
}

// Notifier creates in-app notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, in notification.CreateInput) (*notification.Notification, error)
}

// Service defines the claim lifecycle operations.
type Service interface {
	CreateClaim(ctx context.Context, recipientID uuid.UUID, req CreateClaimRequest) (*Claim, error)
	ApproveClaim(ctx context.Context, claimID, donorID uuid.UUID) (*Claim, error)
	RejectClaim(ctx context.Context, claimID, donorID uuid.UUID) (*Claim, error)
	CompleteClaim(ctx context.Context, claimID, donorID uuid.UUID) (*Claim, error)
	CancelClaim(ctx context.Context, claimID, recipientID uuid.UUID) (*Claim, error)
	GetClaim(ctx context.Context, claimID, actorID uuid.UUID) (*Claim, error)
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error)
	ListForDonor(ctx context.Context, donorID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error)
	ListForListing(ctx context.Context, listingID, donorID uuid.UUID) ([]Claim, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo      Repository
	listings  ListingGateway
	outcomes  OutcomeRecorder
	notifier  Notifier
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new claim service.
func NewService(
	repo Repository,
	listings ListingGateway,
	outcomes OutcomeRecorder,
	notifier Notifier,
	publisher events.Publisher,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:      repo,
		listings:  listings,
		outcomes:  outcomes,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.Named("claim_service"),
		now:       time.Now,
	}
}

// CreateClaim reserves an available listing for a recipient. The listing is
// flipped to claimed before the claim row is written; if the write fails the
// flip is undone.
func (s *ServiceImplementation) CreateClaim(ctx context.Context, recipientID uuid.UUID, req CreateClaimRequest) (*Claim, error) {
	l, err := s.listings.GetListingByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if l.DonorID == recipientID {
		return nil, common.ErrForbidden.WithDetails("You cannot claim your own listing.")
	}
	if l.IsExpired(s.now()) {
		return nil, common.ErrConflict.WithDetails("This listing has expired.")
	}

	ok, err := s.listings.ClaimIfAvailable(ctx, l.ID)
	if err != nil {
		s.logger.Error("Failed to flip listing to claimed", zap.String("listingID", l.ID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not claim listing.")
	}
	if !ok {
		return nil, common.ErrConflict.WithDetails("This listing is no longer available.")
	}

	c := &Claim{
		ListingID:   l.ID,
		RecipientID: recipientID,
		Status:      StatusPending,
		PickupTime:  req.PickupTime,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to insert claim, releasing listing", zap.String("listingID", l.ID.String()), zap.Error(err))
		if relErr := s.listings.Release(ctx, l.ID); relErr != nil {
			s.logger.Error("Failed to release listing after claim insert failure",
				zap.String("listingID", l.ID.String()), zap.Error(relErr))
		}
		return nil, common.ErrInternalServer.WithDetails("Could not create claim.")
	}

	claimedAt := c.CreatedAt
	if claimedAt.IsZero() {
		claimedAt = s.now()
	}
	if s.outcomes != nil {
		if _, err := s.outcomes.RecordClaim(ctx, l.ID, &claimedAt); err != nil {
			s.logger.Warn("Failed to record claim outcome", zap.String("listingID", l.ID.String()), zap.Error(err))
		}
	}
	s.notify(ctx, notification.CreateInput{
		RecipientID: l.DonorID,
		ListingID:   &l.ID,
		Type:        notification.TypeClaimCreated,
		Title:       fmt.Sprintf("New claim on %s", l.Title),
		Message:     "A recipient has claimed your listing. Review it from your dashboard.",
	})
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.Event{
		Type:     events.TypeClaimCreated,
		EntityID: c.ID.String(),
		ActorID:  recipientID.String(),
		Payload:  map[string]interface{}{"listing_id": l.ID.String()},
	})

	s.logger.Info("Claim created", zap.String("claimID", c.ID.String()), zap.String("listingID", l.ID.String()))
	return c, nil
}

func (s *ServiceImplementation) ApproveClaim(ctx context.Context, claimID, donorID uuid.UUID) (*Claim, error) {
	return s.apply(ctx, claimID, donorID, ActionApprove)
}

func (s *ServiceImplementation) RejectClaim(ctx context.Context, claimID, donorID uuid.UUID) (*Claim, error) {
	return s.apply(ctx, claimID, donorID, ActionReject)
}

func (s *ServiceImplementation) CompleteClaim(ctx context.Context, claimID, donorID uuid.UUID) (*Claim, error) {
	return s.apply(ctx, claimID, donorID, ActionComplete)
}

func (s *ServiceImplementation) CancelClaim(ctx context.Context, claimID, recipientID uuid.UUID) (*Claim, error) {
	return s.apply(ctx, claimID, recipientID, ActionCancel)
}

func (s *ServiceImplementation) apply(ctx context.Context, claimID, actorID uuid.UUID, action Action) (*Claim, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown claim action %q.", action))
	}

	c, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	l, err := s.listings.GetListingByID(ctx, c.ListingID)
	if err != nil {
		return nil, err
	}

	switch t.actor {
	case actorDonor:
		if l.DonorID != actorID {
			return nil, common.ErrForbidden.WithDetails("Only the listing donor can " + string(action) + " this claim.")
		}
	case actorRecipient:
		if c.RecipientID != actorID {
			return nil, common.ErrForbidden.WithDetails("Only the recipient can " + string(action) + " this claim.")
		}
	}

	if !t.allowedFrom(c.Status) {
		return nil, common.NewInvalidTransitionError(string(c.Status), string(action))
	}

	changed, err := s.repo.TransitionStatus(ctx, c.ID, t.from, t.to)
	if err != nil {
		s.logger.Error("Failed to transition claim", zap.String("claimID", c.ID.String()), zap.String("action", string(action)), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not update claim.")
	}
	if !changed {
		// Another request moved the claim first.
		current, findErr := s.repo.FindByID(ctx, c.ID)
		if findErr != nil {
			return nil, findErr
		}
		return nil, common.NewInvalidTransitionError(string(current.Status), string(action))
	}

	from := c.Status
	if updated, findErr := s.repo.FindByID(ctx, c.ID); findErr == nil {
		c = updated
	} else {
		s.logger.Warn("Failed to reload claim after transition", zap.String("claimID", c.ID.String()), zap.Error(findErr))
		c.Status = t.to
		c.UpdatedAt = time.Now().UTC()
	}

	if t.releasesListing {
		if err := s.listings.Release(ctx, l.ID); err != nil {
			s.logger.Error("Failed to release listing after claim left the active states",
				zap.String("claimID", c.ID.String()), zap.String("listingID", l.ID.String()), zap.Error(err))
		}
	}

	target := c.RecipientID
	if t.actor == actorRecipient {
		target = l.DonorID
	}
	s.notify(ctx, notification.CreateInput{
		RecipientID: target,
		ListingID:   &l.ID,
		Type:        t.notifyType,
		Title:       fmt.Sprintf("Claim %s: %s", t.to, l.Title),
		Message:     transitionMessage(action, l.Title),
	})
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.Event{
		Type:     events.TypeClaimStatusChanged,
		EntityID: c.ID.String(),
		ActorID:  actorID.String(),
		Payload: map[string]interface{}{
			"listing_id": l.ID.String(),
			"from":       string(from),
			"to":         string(t.to),
		},
	})

	s.logger.Info("Claim transitioned",
		zap.String("claimID", c.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(t.to)),
	)
	return c, nil
}

func transitionMessage(action Action, title string) string {
	switch action {
	case ActionApprove:
		return fmt.Sprintf("Your claim for %s was approved. Please pick it up on time.", title)
	case ActionReject:
		return fmt.Sprintf("Your claim for %s was declined by the donor.", title)
	case ActionComplete:
		return fmt.Sprintf("Pickup of %s is complete. Thank you for reducing food waste!", title)
	case ActionCancel:
		return fmt.Sprintf("The recipient cancelled their claim on %s. It is available again.", title)
	}
	return title
}

func (s *ServiceImplementation) notify(ctx context.Context, in notification.CreateInput) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.CreateNotification(ctx, in); err != nil {
		s.logger.Warn("Failed to create claim notification",
			zap.String("recipientID", in.RecipientID.String()),
			zap.String("type", string(in.Type)),
			zap.Error(err),
		)
	}
}

// GetClaim returns a claim visible to its recipient or the listing donor.
func (s *ServiceImplementation) GetClaim(ctx context.Context, claimID, actorID uuid.UUID) (*Claim, error) {
	c, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.RecipientID == actorID {
		return c, nil
	}
	l, err := s.listings.GetListingByID(ctx, c.ListingID)
	if err != nil {
		return nil, err
	}
	if l.DonorID != actorID {
		return nil, common.ErrForbidden.WithDetails("You are not a party to this claim.")
	}
	return c, nil
}

func (s *ServiceImplementation) ListForRecipient(ctx context.Context, recipientID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error) {
	return s.repo.ListByRecipient(ctx, recipientID, pq)
}

func (s *ServiceImplementation) ListForDonor(ctx context.Context, donorID uuid.UUID, pq common.PaginationQuery) ([]Claim, *common.Pagination, error) {
	return s.repo.ListByDonor(ctx, donorID, pq)
}

func (s *ServiceImplementation) ListForListing(ctx context.Context, listingID, donorID uuid.UUID) ([]Claim, error) {
	l, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.DonorID != donorID {
		return nil, common.ErrForbidden.WithDetails("You do not own this listing.")
	}
	return s.repo.ListByListing(ctx, listingID)
}
