package outcome

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/listing"
)

// ListingLookup loads listings so claim times can be measured from posting.
type ListingLookup interface {
	GetListingByID(ctx context.Context, id uuid.UUID) (*listing.FoodListing, error)
}

// Service records and reports listing outcomes.
type Service interface {
	EnsureForMatch(ctx context.Context, listingID uuid.UUID, strategy, promptVersion string) (*Outcome, error)
	SetNotifiedCount(ctx context.Context, listingID uuid.UUID, count int) error
	RecordClaim(ctx context.Context, listingID uuid.UUID, claimTime *time.Time) (*Outcome, error)
	RecordExpiration(ctx context.Context, listingID uuid.UUID) (*Outcome, error)
	// RecordExpirations marks each listing expired, skipping those already
	// expired, and returns the listings that changed.
	RecordExpirations(ctx context.Context, listingIDs []uuid.UUID) ([]uuid.UUID, error)
	Metrics(ctx context.Context, timeframe string) (*Metrics, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo          Repository
	listings      ListingLookup
	strategy      string
	promptVersion string
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a new outcome service.
func NewService(repo Repository, listings ListingLookup, cfg *config.Config, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repo:          repo,
		listings:      listings,
		strategy:      cfg.MatchStrategy,
		promptVersion: cfg.MatchPromptVersion,
		logger:        logger.Named("outcome_service"),
		now:           time.Now,
	}
}

func (s *ServiceImplementation) newOutcome(listingID uuid.UUID) *Outcome {
	return &Outcome{
		FoodListingID: listingID,
		StrategyUsed:  s.strategy,
		PromptVersion: s.promptVersion,
	}
}

// EnsureForMatch creates the outcome row for a matching run or returns the
// existing one unchanged.
func (s *ServiceImplementation) EnsureForMatch(ctx context.Context, listingID uuid.UUID, strategy, promptVersion string) (*Outcome, error) {
	o := s.newOutcome(listingID)
	if strategy != "" {
		o.StrategyUsed = strategy
	}
	if promptVersion != "" {
		o.PromptVersion = promptVersion
	}
	stored, err := s.repo.Upsert(ctx, o)
	if err != nil {
		s.logger.Error("Failed to ensure outcome", zap.String("listingID", listingID.String()), zap.Error(err))
		return nil, err
	}
	return stored, nil
}

func (s *ServiceImplementation) SetNotifiedCount(ctx context.Context, listingID uuid.UUID, count int) error {
	return s.repo.SetNotifiedCount(ctx, listingID, count)
}

// minutesToClaim is nil when either end of the interval is unknown.
func (s *ServiceImplementation) minutesToClaim(ctx context.Context, listingID uuid.UUID, claimTime *time.Time) *int {
	if claimTime == nil || s.listings == nil {
		return nil
	}
	l, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("Failed to load listing for claim timing", zap.String("listingID", listingID.String()), zap.Error(err))
		}
		return nil
	}
	minutes := int(math.Round(claimTime.Sub(l.CreatedAt).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return &minutes
}

func (s *ServiceImplementation) RecordClaim(ctx context.Context, listingID uuid.UUID, claimTime *time.Time) (*Outcome, error) {
	o := s.newOutcome(listingID)
	o.Claimed = true
	o.TimeToClaim = s.minutesToClaim(ctx, listingID, claimTime)

	stored, err := s.repo.Upsert(ctx, o, "claimed", "time_to_claim")
	if err != nil {
		s.logger.Error("Failed to record claim outcome", zap.String("listingID", listingID.String()), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Claim outcome recorded", zap.String("listingID", listingID.String()), zap.Any("timeToClaim", stored.TimeToClaim))
	return stored, nil
}

func (s *ServiceImplementation) RecordExpiration(ctx context.Context, listingID uuid.UUID) (*Outcome, error) {
	o := s.newOutcome(listingID)
	o.Expired = true
	stored, err := s.repo.Upsert(ctx, o, "expired")
	if err != nil {
		s.logger.Error("Failed to record expiration outcome", zap.String("listingID", listingID.String()), zap.Error(err))
		return nil, err
	}
	return stored, nil
}

func (s *ServiceImplementation) RecordExpirations(ctx context.Context, listingIDs []uuid.UUID) ([]uuid.UUID, error) {
	already, err := s.repo.ExpiredListingIDs(ctx, listingIDs)
	if err != nil {
		return nil, err
	}
	var updated []uuid.UUID
	var errs []error
	for _, id := range listingIDs {
		if already[id] {
			continue
		}
		if _, err := s.RecordExpiration(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		already[id] = true
		updated = append(updated, id)
	}
	return updated, errors.Join(errs...)
}

func (s *ServiceImplementation) Metrics(ctx context.Context, timeframe string) (*Metrics, error) {
	tf := Timeframe(timeframe)
	if timeframe == "" {
		tf = TimeframeMonth
	}
	since, ok := tf.Since(s.now())
	if !ok {
		return nil, common.NewValidationError(map[string]string{"timeframe": "timeframe must be one of week, month, all."})
	}

	row, err := s.repo.Aggregate(ctx, since)
	if err != nil {
		s.logger.Error("Failed to aggregate outcome metrics", zap.String("timeframe", string(tf)), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not compute outcome metrics.")
	}

	m := &Metrics{
		Timeframe:              tf,
		TotalOutcomes:          row.Total,
		Claimed:                row.Claimed,
		Expired:                row.Expired,
		OutcomesWithClaimTimes: row.TimedClaims,
	}
	if row.Total > 0 {
		m.ClaimRate = int(math.Round(100 * float64(row.Claimed) / float64(row.Total)))
	}
	if row.AvgTime != nil {
		m.AvgTimeToClaimMinutes = int(math.Round(*row.AvgTime))
	}
	return m, nil
}
