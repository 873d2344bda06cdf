// Package coach produces the short motivational sentence shown on a user's
// dashboard.
package coach

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/goal"
	"shareaplate_backend/internal/llm"
	"shareaplate_backend/internal/prompt"
)

// CoachRequest is the body of POST /coach/message.
type CoachRequest struct {
	Role  string               `json:"role" binding:"required,oneof=donor recipient admin"`
	Stats prompt.CoachStats    `json:"stats"`
	Goals []prompt.GoalSummary `json:"goals"`
}

// DonorStats reports a donor's listing counts.
type DonorStats interface {
	DonorStats(ctx context.Context, donorID uuid.UUID) (active int64, total int64, err error)
}

// ClaimCounter counts a recipient's claims.
type ClaimCounter interface {
	CountByRecipient(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// GoalProgress measures a user's goals.
type GoalProgress interface {
	ComputeProgress(ctx context.Context, userID uuid.UUID) ([]goal.Progress, error)
}

// Service generates coaching messages.
type Service interface {
	GenerateMessage(ctx context.Context, req CoachRequest) (string, error)
	StatsFor(ctx context.Context, userID uuid.UUID, role string) (CoachRequest, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	gateway  llm.Gateway
	listings DonorStats
	claims   ClaimCounter
	goals    GoalProgress
	model    string
	logger   *zap.Logger
}

// NewService creates a new coach service.
func NewService(gateway llm.Gateway, listings DonorStats, claims ClaimCounter, goals GoalProgress, cfg *config.Config, logger *zap.Logger) Service {
	return &ServiceImplementation{
		gateway:  gateway,
		listings: listings,
		claims:   claims,
		goals:    goals,
		model:    cfg.GeminiCoachModel,
		logger:   logger.Named("coach_service"),
	}
}

var quoteStripper = strings.NewReplacer(`"`, "", "“", "", "”", "")

// cleanMessage trims the reply and removes quotation marks the model added
// despite being told not to.
func cleanMessage(raw string) string {
	text := quoteStripper.Replace(strings.TrimSpace(raw))
	text = strings.Trim(text, "'‘’ \n")
	return strings.TrimSpace(text)
}

func (s *ServiceImplementation) GenerateMessage(ctx context.Context, req CoachRequest) (string, error) {
	if strings.TrimSpace(req.Role) == "" {
		return "", common.NewValidationError(map[string]string{"Role": "The role field is required."})
	}

	raw, err := s.gateway.Generate(ctx, llm.Request{
		Prompt: prompt.BuildCoachPrompt(req.Role, req.Stats, req.Goals),
		Model:  s.model,
		Metadata: map[string]string{
			"feature":   "impact_coach",
			"user_role": req.Role,
			"has_goals": boolString(len(req.Goals) > 0),
		},
	})
	if err != nil {
		s.logger.Error("Coach message generation failed", zap.String("role", req.Role), zap.Error(err))
		if errors.Is(err, llm.ErrTimeout) {
			return "", common.NewUpstreamError("The coaching model timed out.")
		}
		return "", common.NewUpstreamError("Failed to generate message.")
	}

	msg := cleanMessage(raw)
	if msg == "" {
		return "", common.NewUpstreamError("The coaching model returned an empty message.")
	}
	return msg, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// StatsFor gathers the activity counters and goal progress quoted in a
// coaching prompt for the user.
func (s *ServiceImplementation) StatsFor(ctx context.Context, userID uuid.UUID, role string) (CoachRequest, error) {
	req := CoachRequest{Role: role}
	switch role {
	case common.RoleDonor:
		active, total, err := s.listings.DonorStats(ctx, userID)
		if err != nil {
			return req, err
		}
		req.Stats.ActiveListings = int(active)
		req.Stats.TotalListings = int(total)
	default:
		n, err := s.claims.CountByRecipient(ctx, userID)
		if err != nil {
			return req, err
		}
		req.Stats.Claims = int(n)
	}

	progress, err := s.goals.ComputeProgress(ctx, userID)
	if err != nil {
		s.logger.Warn("Coach stats: goal progress unavailable", zap.String("userID", userID.String()), zap.Error(err))
		return req, nil
	}
	for _, p := range progress {
		if !p.Supported {
			continue
		}
		req.Goals = append(req.Goals, prompt.GoalSummary{
			GoalType:     string(p.GoalType),
			CurrentValue: p.CurrentValue,
			TargetValue:  p.TargetValue,
			Timeframe:    string(p.Timeframe),
		})
	}
	return req, nil
}
