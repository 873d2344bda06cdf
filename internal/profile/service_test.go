package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, p *Profile) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil && p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByFirebaseUID(ctx context.Context, uid string) (*Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Profile), args.Error(1)
}

func (m *MockProfileRepository) ListByRole(ctx context.Context, role, location string) ([]Profile, error) {
	args := m.Called(ctx, role, location)
	return args.Get(0).([]Profile), args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, p *Profile) error {
	return m.Called(ctx, p).Error(0)
}

func setupProfileServiceTestSuite(t *testing.T) (*Service, *MockProfileRepository) {
	repo := new(MockProfileRepository)
	return NewService(repo, zap.NewNop()), repo
}

func TestResolveFromToken_Existing(t *testing.T) {
	svc, repo := setupProfileServiceTestSuite(t)
	existing := &Profile{BaseModel: common.BaseModel{ID: uuid.New()}, FirebaseUID: "fb-1", Role: common.RoleDonor}
	repo.On("FindByFirebaseUID", mock.Anything, "fb-1").Return(existing, nil).Once()

	p, err := svc.ResolveFromToken(context.Background(), Identity{FirebaseUID: "fb-1", Role: common.RoleRecipient})
	require.NoError(t, err)
	assert.Equal(t, existing, p)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveFromToken_CreatesWithClaimedRole(t *testing.T) {
	svc, repo := setupProfileServiceTestSuite(t)
	repo.On("FindByFirebaseUID", mock.Anything, "fb-2").Return(nil, common.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *Profile) bool {
		return p.FirebaseUID == "fb-2" && p.Role == common.RoleDonor && p.Email != nil && *p.Email == "ada@example.com"
	})).Return(nil).Once()

	p, err := svc.ResolveFromToken(context.Background(), Identity{FirebaseUID: "fb-2", Email: "ada@example.com", Name: "Ada", Role: "donor"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	repo.AssertExpectations(t)
}

func TestResolveFromToken_UnknownRoleDefaultsToRecipient(t *testing.T) {
	svc, repo := setupProfileServiceTestSuite(t)
	repo.On("FindByFirebaseUID", mock.Anything, "fb-3").Return(nil, common.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *Profile) bool {
		return p.Role == common.RoleRecipient
	})).Return(nil).Once()

	p, err := svc.ResolveFromToken(context.Background(), Identity{FirebaseUID: "fb-3", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, common.RoleRecipient, p.Role)
}

func TestResolveFromToken_LookupError(t *testing.T) {
	svc, repo := setupProfileServiceTestSuite(t)
	repo.On("FindByFirebaseUID", mock.Anything, "fb-4").Return(nil, errors.New("db down")).Once()

	_, err := svc.ResolveFromToken(context.Background(), Identity{FirebaseUID: "fb-4"})
	assert.Error(t, err)
}

func TestUpdateProfile_AppliesFields(t *testing.T) {
	svc, repo := setupProfileServiceTestSuite(t)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(&Profile{BaseModel: common.BaseModel{ID: id}, Role: common.RoleRecipient}, nil).Once()
	repo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	loc, role := "Yaba", "donor"
	p, err := svc.UpdateProfile(context.Background(), id, UpdateProfileRequest{Location: &loc, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Yaba", p.Location)
	assert.Equal(t, common.RoleDonor, p.Role)
}

func TestUpdateProfile_AdminCannotChangeRole(t *testing.T) {
	svc, repo := setupProfileServiceTestSuite(t)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(&Profile{BaseModel: common.BaseModel{ID: id}, Role: common.RoleAdmin}, nil).Once()

	role := "donor"
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileRequest{Role: &role})
	assert.True(t, common.HasCode(err, common.CodeForbidden))
}

func TestListRecipients_RejectsUnknownLocation(t *testing.T) {
	svc, _ := setupProfileServiceTestSuite(t)
	_, err := svc.ListRecipients(context.Background(), "Abuja")
	assert.True(t, common.HasCode(err, common.CodeValidation))
}
