package call

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studycircle-backend/internal/domain"
	"studycircle-backend/internal/repository/memory"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
)

func init() {
	logger.InitDefault()
}

// MockPresenceStore is a mock implementation of PresenceStore
type MockPresenceStore struct {
	mock.Mock
}

func (m *MockPresenceStore) SetOnCall(ctx context.Context, userID, callID uuid.UUID) error {
	args := m.Called(ctx, userID, callID)
	return args.Error(0)
}

func (m *MockPresenceStore) ClearOnCall(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPresenceStore) IsOnCall(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPresenceStore) GetOnCallUsers(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPresenceStore) IsDegraded() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishCallEvent(ctx context.Context, event *domain.CallEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestService() (*Service, *MockPresenceStore, *MockEventPublisher) {
	presence := new(MockPresenceStore)
	publisher := new(MockEventPublisher)
	svc := NewService(memory.NewCallDirectory(), presence, publisher, nil)
	return svc, presence, publisher
}

func TestStartCallMirrorsPresenceAndPublishes(t *testing.T) {
	svc, presence, publisher := newTestService()
	admin := uuid.New()
	circle := uuid.New()

	presence.On("SetOnCall", mock.Anything, admin, mock.AnythingOfType("uuid.UUID")).Return(nil)
	publisher.On("PublishCallEvent", mock.Anything, mock.MatchedBy(func(e *domain.CallEvent) bool {
		return e.Type == domain.CallEventStarted && e.CircleID == circle
	})).Return(nil)

	call, err := svc.StartCall(context.Background(), admin, circle)

	require.NoError(t, err)
	assert.Equal(t, admin, call.AdminID)
	presence.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestStartCallFailureSkipsSideEffects(t *testing.T) {
	svc, presence, publisher := newTestService()
	admin := uuid.New()

	presence.On("SetOnCall", mock.Anything, admin, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()
	publisher.On("PublishCallEvent", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.StartCall(context.Background(), admin, uuid.New())
	require.NoError(t, err)

	// Second start for the same admin is rejected; no presence write,
	// no event
	_, err = svc.StartCall(context.Background(), admin, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyOnCall))

	presence.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestJoinAndLeavePublishEvents(t *testing.T) {
	svc, presence, publisher := newTestService()
	admin := uuid.New()
	user := uuid.New()

	presence.On("SetOnCall", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("uuid.UUID")).Return(nil)
	presence.On("ClearOnCall", mock.Anything, user).Return(nil).Once()
	publisher.On("PublishCallEvent", mock.Anything, mock.Anything).Return(nil)

	call, err := svc.StartCall(context.Background(), admin, uuid.New())
	require.NoError(t, err)

	_, err = svc.JoinCall(context.Background(), user, call.CallID)
	require.NoError(t, err)

	_, err = svc.LeaveCall(context.Background(), user, call.CallID)
	require.NoError(t, err)

	presence.AssertExpectations(t)

	types := publishedTypes(publisher)
	assert.Equal(t, []string{
		domain.CallEventStarted,
		domain.CallEventJoined,
		domain.CallEventLeft,
	}, types)
}

func TestEndCallClearsEveryMember(t *testing.T) {
	svc, presence, publisher := newTestService()
	admin := uuid.New()
	userB := uuid.New()
	userC := uuid.New()

	presence.On("SetOnCall", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("uuid.UUID")).Return(nil)
	presence.On("ClearOnCall", mock.Anything, admin).Return(nil).Once()
	presence.On("ClearOnCall", mock.Anything, userB).Return(nil).Once()
	presence.On("ClearOnCall", mock.Anything, userC).Return(nil).Once()
	publisher.On("PublishCallEvent", mock.Anything, mock.Anything).Return(nil)

	call, err := svc.StartCall(context.Background(), admin, uuid.New())
	require.NoError(t, err)
	_, err = svc.JoinCall(context.Background(), userB, call.CallID)
	require.NoError(t, err)
	_, err = svc.JoinCall(context.Background(), userC, call.CallID)
	require.NoError(t, err)

	final, err := svc.EndCall(context.Background(), admin, call.CallID)
	require.NoError(t, err)
	assert.Len(t, final.Participants, 2)

	presence.AssertExpectations(t)
}

func TestPresenceFailureDoesNotFailOperation(t *testing.T) {
	svc, presence, publisher := newTestService()
	admin := uuid.New()

	presence.On("SetOnCall", mock.Anything, admin, mock.AnythingOfType("uuid.UUID")).
		Return(assert.AnError)
	publisher.On("PublishCallEvent", mock.Anything, mock.Anything).Return(assert.AnError)

	// Mirroring and publication are best effort; the transition commits
	call, err := svc.StartCall(context.Background(), admin, uuid.New())
	require.NoError(t, err)

	got, err := svc.GetCallByID(context.Background(), call.CallID)
	require.NoError(t, err)
	assert.Equal(t, call.CallID, got.CallID)
}

func TestNextSpeakerEmptyQueueIsNotAnError(t *testing.T) {
	svc, presence, publisher := newTestService()
	admin := uuid.New()

	presence.On("SetOnCall", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	publisher.On("PublishCallEvent", mock.Anything, mock.Anything).Return(nil)

	call, err := svc.StartCall(context.Background(), admin, uuid.New())
	require.NoError(t, err)

	res, err := svc.NextSpeaker(context.Background(), admin, call.CallID)
	require.NoError(t, err)
	assert.False(t, res.Called)

	// Empty-queue results are not broadcast
	for _, c := range publisher.Calls {
		event := c.Arguments.Get(1).(*domain.CallEvent)
		assert.NotEqual(t, domain.CallEventNextSpeaker, event.Type)
	}
}

func TestNilCollaboratorsAreSkipped(t *testing.T) {
	svc := NewService(memory.NewCallDirectory(), nil, nil, nil)
	admin := uuid.New()
	user := uuid.New()

	call, err := svc.StartCall(context.Background(), admin, uuid.New())
	require.NoError(t, err)
	_, err = svc.JoinCall(context.Background(), user, call.CallID)
	require.NoError(t, err)
	_, err = svc.EndCall(context.Background(), admin, call.CallID)
	assert.NoError(t, err)
}

func TestOnCallUsersReadsPresenceMirror(t *testing.T) {
	svc, presence, _ := newTestService()
	onCall := []uuid.UUID{uuid.New(), uuid.New()}

	presence.On("GetOnCallUsers", mock.Anything).Return(onCall, nil)
	presence.On("IsDegraded").Return(false)

	users, degraded, err := svc.OnCallUsers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, onCall, users)
	assert.False(t, degraded)
}

func TestOnCallUsersFlagsDegradedMirror(t *testing.T) {
	svc, presence, _ := newTestService()

	presence.On("GetOnCallUsers", mock.Anything).Return(nil, assert.AnError)
	presence.On("IsDegraded").Return(true)

	_, degraded, err := svc.OnCallUsers(context.Background())

	require.Error(t, err)
	assert.True(t, degraded)
}

func TestIsUserOnCallReadsPresenceMirror(t *testing.T) {
	svc, presence, _ := newTestService()
	user := uuid.New()

	presence.On("IsOnCall", mock.Anything, user).Return(true, nil)

	onCall, err := svc.IsUserOnCall(context.Background(), user)

	require.NoError(t, err)
	assert.True(t, onCall)
	presence.AssertExpectations(t)
}

func TestPresenceQueriesWithoutMirror(t *testing.T) {
	svc := NewService(memory.NewCallDirectory(), nil, nil, nil)

	users, degraded, err := svc.OnCallUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.True(t, degraded)

	onCall, err := svc.IsUserOnCall(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, onCall)
}

func publishedTypes(publisher *MockEventPublisher) []string {
	types := make([]string, 0, len(publisher.Calls))
	for _, c := range publisher.Calls {
		event := c.Arguments.Get(1).(*domain.CallEvent)
		types = append(types, event.Type)
	}
	return types
}
