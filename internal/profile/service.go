package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Identity is what the authentication layer knows about a caller.
type Identity struct {
	FirebaseUID string
	Email       string
	Name        string
	// Role comes from the "role" custom claim and only applies on first sign-in.
	Role string
}

// Service implements profile use cases.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("profile_service")}
}

// ResolveFromToken returns the local profile for a verified identity,
// creating it on first sight.
func (s *Service) ResolveFromToken(ctx context.Context, id Identity) (*Profile, error) {
	p, err := s.repo.FindByFirebaseUID(ctx, id.FirebaseUID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to look up profile by Firebase UID", zap.Error(err), zap.String("firebaseUID", id.FirebaseUID))
		return nil, err
	}

	role := id.Role
	if role != common.RoleDonor && role != common.RoleRecipient {
		role = common.RoleRecipient
	}
	p = &Profile{FirebaseUID: id.FirebaseUID, Name: id.Name, Role: role}
	if id.Email != "" {
		email := id.Email
		p.Email = &email
	}

	if err := s.repo.Create(ctx, p); err != nil {
		// Two first requests from the same user can race; the loser re-reads.
		if errors.Is(err, common.ErrConflict) {
			return s.repo.FindByFirebaseUID(ctx, id.FirebaseUID)
		}
		s.logger.Error("Failed to create profile", zap.Error(err), zap.String("firebaseUID", id.FirebaseUID))
		return nil, err
	}
	s.logger.Info("Profile created", zap.String("profileID", p.ID.String()), zap.String("role", p.Role))
	return p, nil
}

// GetProfile returns one profile by ID.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.FindByID(ctx, id)
}

// GetProfiles returns the profiles matching ids; unknown ids are skipped.
func (s *Service) GetProfiles(ctx context.Context, ids []uuid.UUID) ([]Profile, error) {
	return s.repo.FindByIDs(ctx, ids)
}

// UpdateProfile applies the non-nil fields of req.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && p.Role == common.RoleAdmin {
		return nil, common.ErrForbidden.WithDetails("Admin profiles cannot change role.")
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Role != nil {
		p.Role = *req.Role
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.FCMToken != nil {
		p.FCMToken = req.FCMToken
	}
	if req.TelegramChatID != nil {
		p.TelegramChatID = req.TelegramChatID
	}

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err), zap.String("profileID", id.String()))
		return nil, err
	}
	return p, nil
}

// ListRecipients returns recipient profiles, optionally in one neighborhood.
func (s *Service) ListRecipients(ctx context.Context, location string) ([]Profile, error) {
	if location != "" && !common.IsNeighborhood(location) {
		return nil, common.NewValidationError("Unknown location: " + location)
	}
	return s.repo.ListByRole(ctx, common.RoleRecipient, location)
}
