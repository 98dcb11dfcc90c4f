package circle

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
)

func init() {
	logger.InitDefault()
}

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, circle *domain.Circle) error {
	args := m.Called(ctx, circle)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, circleID uuid.UUID) (*domain.Circle, error) {
	args := m.Called(ctx, circleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Circle), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter *domain.CircleFilter) ([]*domain.Circle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Circle), args.Error(1)
}

func (m *MockRepository) Search(ctx context.Context, keywords []string, excludeMember uuid.UUID) ([]*domain.Circle, error) {
	args := m.Called(ctx, keywords, excludeMember)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Circle), args.Error(1)
}

func (m *MockRepository) AddMember(ctx context.Context, circleID, userID uuid.UUID) error {
	args := m.Called(ctx, circleID, userID)
	return args.Error(0)
}

func (m *MockRepository) RemoveMember(ctx context.Context, circleID, userID uuid.UUID) error {
	args := m.Called(ctx, circleID, userID)
	return args.Error(0)
}

func (m *MockRepository) IsMember(ctx context.Context, circleID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, circleID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MemberCount(ctx context.Context, circleID uuid.UUID) (int, error) {
	args := m.Called(ctx, circleID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpdateTitle(ctx context.Context, circleID uuid.UUID, title string) error {
	args := m.Called(ctx, circleID, title)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, circleID uuid.UUID) error {
	args := m.Called(ctx, circleID)
	return args.Error(0)
}

func circleFixture(admin uuid.UUID, capacity int, members ...uuid.UUID) *domain.Circle {
	all := append([]uuid.UUID{admin}, members...)
	return &domain.Circle{
		CircleID: uuid.New(),
		Title:    "Linear Algebra",
		AdminID:  admin,
		Capacity: capacity,
		Members:  all,
	}
}

func TestCreateCircleEnrollsAdmin(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	admin := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Circle) bool {
		return c.AdminID == admin && len(c.Members) == 1 && c.Members[0] == admin
	})).Return(nil)

	circle, err := svc.CreateCircle(context.Background(), admin, "Topology", 5, "advanced", "weekly proofs")

	require.NoError(t, err)
	assert.Equal(t, "Topology", circle.Title)
	assert.True(t, circle.IsMember(admin))
	repo.AssertExpectations(t)
}

func TestCreateCircleRequiresTitle(t *testing.T) {
	svc := NewService(new(MockRepository))

	_, err := svc.CreateCircle(context.Background(), uuid.New(), "   ", 5, "", "")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingField))
}

func TestJoinCircleRejectsExistingMember(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	admin := uuid.New()
	circle := circleFixture(admin, 10)

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)

	_, err := svc.JoinCircle(context.Background(), admin, circle.CircleID)

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyMember))
	repo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinCircleEnforcesCapacity(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	admin := uuid.New()
	circle := circleFixture(admin, 2, uuid.New())

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)

	_, err := svc.JoinCircle(context.Background(), uuid.New(), circle.CircleID)

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCircleFull))
}

func TestJoinCircleZeroCapacityIsUnlimited(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	admin := uuid.New()
	user := uuid.New()
	circle := circleFixture(admin, 0, uuid.New(), uuid.New())

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)
	repo.On("AddMember", mock.Anything, circle.CircleID, user).Return(nil)

	got, err := svc.JoinCircle(context.Background(), user, circle.CircleID)

	require.NoError(t, err)
	assert.True(t, got.IsMember(user))
	repo.AssertExpectations(t)
}

func TestLeaveCircleRequiresMembership(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	circle := circleFixture(uuid.New(), 5)

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)

	_, err := svc.LeaveCircle(context.Background(), uuid.New(), circle.CircleID)

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotCircleMember))
}

func TestLeaveCircleRemovesMember(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	admin := uuid.New()
	user := uuid.New()
	circle := circleFixture(admin, 5, user)

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)
	repo.On("RemoveMember", mock.Anything, circle.CircleID, user).Return(nil)

	got, err := svc.LeaveCircle(context.Background(), user, circle.CircleID)

	require.NoError(t, err)
	assert.False(t, got.IsMember(user))
	assert.True(t, got.IsMember(admin))
}

func TestRenameCircleAdminOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	circle := circleFixture(uuid.New(), 5)

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)

	_, err := svc.RenameCircle(context.Background(), uuid.New(), circle.CircleID, "New Name")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotCircleAdmin))
	repo.AssertNotCalled(t, "UpdateTitle", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteCircleAdminOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	admin := uuid.New()
	circle := circleFixture(admin, 5)

	repo.On("GetByID", mock.Anything, circle.CircleID).Return(circle, nil)
	repo.On("Delete", mock.Anything, circle.CircleID).Return(nil)

	err := svc.DeleteCircle(context.Background(), admin, circle.CircleID)

	require.NoError(t, err)
	repo.AssertExpectations(t)

	err = svc.DeleteCircle(context.Background(), uuid.New(), circle.CircleID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotCircleAdmin))
}

func TestSearchCirclesTrimsKeywords(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	user := uuid.New()

	repo.On("Search", mock.Anything, []string{"algebra", "proofs"}, user).
		Return([]*domain.Circle{}, nil)

	_, err := svc.SearchCircles(context.Background(), user, []string{" algebra ", "", "proofs"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
