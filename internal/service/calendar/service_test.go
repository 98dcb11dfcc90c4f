package calendar

import (
	"context"
	"testing"
	"time"

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

func (m *MockRepository) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockRepository) GetByCircle(ctx context.Context, circleID uuid.UUID) ([]*domain.Event, error) {
	args := m.Called(ctx, circleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockRepository) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Event, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockRepository) GetStartingWithin(ctx context.Context, eventType string, now time.Time, window time.Duration) ([]*domain.Event, error) {
	args := m.Called(ctx, eventType, now, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func eventFixture(creator uuid.UUID, start time.Time) *domain.Event {
	return &domain.Event{
		EventID:   uuid.New(),
		Name:      "Weekly review",
		CircleID:  uuid.New(),
		CreatorID: creator,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Type:      domain.EventTypeCall,
	}
}

func TestCreateEventValidation(t *testing.T) {
	svc := NewService(new(MockRepository))
	ctx := context.Background()
	creator := uuid.New()
	circle := uuid.New()
	start := time.Now().Add(time.Hour)

	_, err := svc.CreateEvent(ctx, creator, circle, " ", start, start.Add(time.Hour), domain.EventTypeCall, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingField))

	_, err = svc.CreateEvent(ctx, creator, circle, "Review", start, start.Add(time.Hour), "party", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = svc.CreateEvent(ctx, creator, circle, "Review", start, start.Add(-time.Hour), domain.EventTypeCall, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = svc.CreateEvent(ctx, creator, circle, "Review", start, start.Add(time.Hour), domain.EventTypeCall,
		&domain.Recurrence{Unit: "week", Interval: 0})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestCreateEventPersistsRecurrence(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	creator := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return e.Recurrence != nil && e.Recurrence.Unit == "week" && e.Recurrence.Interval == 2
	})).Return(nil)

	event, err := svc.CreateEvent(context.Background(), creator, uuid.New(), "Biweekly call",
		start, start.Add(time.Hour), domain.EventTypeCall, &domain.Recurrence{Unit: "week", Interval: 2})

	require.NoError(t, err)
	assert.Equal(t, creator, event.CreatorID)
	repo.AssertExpectations(t)
}

func TestEditEventCreatorOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	creator := uuid.New()
	event := eventFixture(creator, time.Now().Add(time.Hour))

	repo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)

	name := "Renamed"
	_, err := svc.EditEvent(context.Background(), uuid.New(), event.EventID, EventUpdate{Name: &name})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotEventCreator))

	repo.On("Update", mock.Anything, event).Return(nil)
	updated, err := svc.EditEvent(context.Background(), creator, event.EventID, EventUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestEditEventRejectsInvertedTimes(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	creator := uuid.New()
	event := eventFixture(creator, time.Now().Add(time.Hour))

	repo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)

	badStart := event.EndTime.Add(time.Hour)
	_, err := svc.EditEvent(context.Background(), creator, event.EventID, EventUpdate{StartTime: &badStart})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteEventCreatorOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	creator := uuid.New()
	event := eventFixture(creator, time.Now().Add(time.Hour))

	repo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)

	err := svc.DeleteEvent(context.Background(), uuid.New(), event.EventID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotEventCreator))

	repo.On("Delete", mock.Anything, event.EventID).Return(nil)
	err = svc.DeleteEvent(context.Background(), creator, event.EventID)
	assert.NoError(t, err)
}

func TestIsUpcomingWindow(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	creator := uuid.New()

	soon := eventFixture(creator, time.Now().Add(5*time.Minute))
	repo.On("GetByID", mock.Anything, soon.EventID).Return(soon, nil)

	upcoming, err := svc.IsUpcoming(context.Background(), soon.EventID, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, upcoming)

	far := eventFixture(creator, time.Now().Add(2*time.Hour))
	repo.On("GetByID", mock.Anything, far.EventID).Return(far, nil)

	upcoming, err = svc.IsUpcoming(context.Background(), far.EventID, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, upcoming)
}

func TestEventDuration(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	event := eventFixture(uuid.New(), time.Now())

	repo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)

	d, err := svc.EventDuration(context.Background(), event.EventID)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)
}
