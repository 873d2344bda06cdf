// File: internal/goal/service.go
package goal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/claim"
	"shareaplate_backend/internal/common"
)

// ListingCounter counts a donor's listings.
type ListingCounter interface {
	CountByDonorSince(ctx context.Context, donorID uuid.UUID, since time.Time) (int64, error)
}

// ClaimStats reads a recipient's claim history.
type ClaimStats interface {
	CountByRecipientSince(ctx context.Context, recipientID uuid.UUID, since time.Time, statuses []claim.ClaimStatus) (int64, error)
	ClaimDelaysSince(ctx context.Context, recipientID uuid.UUID, since time.Time) ([]time.Duration, error)
}

// Service defines goal management and progress calculation.
type Service interface {
	ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error)
	CreateGoal(ctx context.Context, userID uuid.UUID, userRole string, req CreateGoalRequest) (*Goal, error)
	UpdateGoal(ctx context.Context, goalID, userID uuid.UUID, req UpdateGoalRequest) (*Goal, error)
	DeleteGoal(ctx context.Context, goalID, userID uuid.UUID) error
	ComputeProgress(ctx context.Context, userID uuid.UUID) ([]Progress, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo     Repository
	listings ListingCounter
	claims   ClaimStats
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new goal service.
func NewService(repo Repository, listings ListingCounter, claims ClaimStats, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repo:     repo,
		listings: listings,
		claims:   claims,
		logger:   logger.Named("goal_service"),
		now:      time.Now,
	}
}

func (s *ServiceImplementation) ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error) {
	return s.repo.ListByUser(ctx, userID)
}

func unsupportedTypeError(t GoalType, role string) error {
	return common.NewValidationError(map[string]string{
		"GoalType": fmt.Sprintf("Goal type %q is not available for the %s role.", t, role),
	})
}

// CreateGoal stores a goal after checking its type can be measured for the role.
func (s *ServiceImplementation) CreateGoal(ctx context.Context, userID uuid.UUID, userRole string, req CreateGoalRequest) (*Goal, error) {
	role := req.Role
	if role == "" {
		role = userRole
	}
	if role != userRole && userRole != common.RoleAdmin {
		return nil, common.ErrForbidden.WithDetails("Goals can only be set for your own role.")
	}
	g := &Goal{
		UserID:      userID,
		Role:        role,
		GoalType:    GoalType(req.GoalType),
		TargetValue: req.TargetValue,
		Timeframe:   Timeframe(req.Timeframe),
	}
	if _, ok := metricFor(g.GoalType, g.Role); !ok {
		return nil, unsupportedTypeError(g.GoalType, g.Role)
	}

	if err := s.repo.Create(ctx, g); err != nil {
		s.logger.Error("Failed to create goal", zap.String("userID", userID.String()), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Goal created", zap.String("goalID", g.ID.String()), zap.String("goalType", string(g.GoalType)))
	return g, nil
}

func (s *ServiceImplementation) getOwned(ctx context.Context, goalID, userID uuid.UUID) (*Goal, error) {
	g, err := s.repo.FindByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, common.ErrForbidden.WithDetails("You do not own this goal.")
	}
	return g, nil
}

func (s *ServiceImplementation) UpdateGoal(ctx context.Context, goalID, userID uuid.UUID, req UpdateGoalRequest) (*Goal, error) {
	g, err := s.getOwned(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	if req.GoalType != nil {
		t := GoalType(*req.GoalType)
		if _, ok := metricFor(t, g.Role); !ok {
			return nil, unsupportedTypeError(t, g.Role)
		}
		g.GoalType = t
	}
	if req.TargetValue != nil {
		g.TargetValue = *req.TargetValue
	}
	if req.Timeframe != nil {
		g.Timeframe = Timeframe(*req.Timeframe)
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *ServiceImplementation) DeleteGoal(ctx context.Context, goalID, userID uuid.UUID) error {
	if _, err := s.getOwned(ctx, goalID, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, goalID)
}

// windowStart returns the beginning of the goal's rolling window.
func windowStart(tf Timeframe, now time.Time) time.Time {
	if tf == TimeframeWeekly {
		return now.AddDate(0, 0, -7)
	}
	return now.AddDate(0, -1, 0)
}

// Percentage is min(100, round(100*current/target)); a non-positive target gives 0.
func Percentage(current, target int) int {
	if target <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(current) / float64(target)))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// ComputeProgress measures every goal of the user over its current window.
// Goals whose type cannot be measured for their role report zero and are
// flagged as unsupported.
func (s *ServiceImplementation) ComputeProgress(ctx context.Context, userID uuid.UUID) ([]Progress, error) {
	goals, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Progress, 0, len(goals))
	for _, g := range goals {
		p := Progress{Goal: g}
		m, ok := metricFor(g.GoalType, g.Role)
		if !ok {
			s.logger.Warn("Goal type has no progress metric",
				zap.String("goalID", g.ID.String()),
				zap.String("goalType", string(g.GoalType)),
				zap.String("role", g.Role),
			)
			p.Note = fmt.Sprintf("Progress for goal type %q is not tracked for the %s role.", g.GoalType, g.Role)
			out = append(out, p)
			continue
		}

		current, err := s.measure(ctx, m, userID, windowStart(g.Timeframe, now))
		if err != nil {
			s.logger.Error("Failed to compute goal progress", zap.String("goalID", g.ID.String()), zap.Error(err))
			return nil, err
		}
		p.Supported = true
		p.Unit = m.unit
		p.CurrentValue = current
		p.ProgressPercentage = Percentage(current, g.TargetValue)
		out = append(out, p)
	}
	return out, nil
}

func (s *ServiceImplementation) measure(ctx context.Context, m metric, userID uuid.UUID, since time.Time) (int, error) {
	switch m.kind {
	case metricListingsCreated:
		n, err := s.listings.CountByDonorSince(ctx, userID, since)
		return int(n), err
	case metricServedClaims:
		n, err := s.claims.CountByRecipientSince(ctx, userID, since,
			[]claim.ClaimStatus{claim.StatusConfirmed, claim.StatusCompleted})
		return int(n), err
	case metricAvgClaimMinutes:
		delays, err := s.claims.ClaimDelaysSince(ctx, userID, since)
		if err != nil || len(delays) == 0 {
			return 0, err
		}
		var total time.Duration
		for _, d := range delays {
			total += d
		}
		return int(math.Round(total.Minutes() / float64(len(delays)))), nil
	}
	return 0, fmt.Errorf("unknown goal metric %d", m.kind)
}
