package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"studycircle-backend/internal/domain"
	"studycircle-backend/pkg/logger"
)

func init() {
	logger.InitDefault()
}

type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) GetUpcoming(ctx context.Context, eventType string, window time.Duration) ([]*domain.Event, error) {
	args := m.Called(ctx, eventType, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

type MockCircles struct {
	mock.Mock
}

func (m *MockCircles) GetCircleAdmin(ctx context.Context, circleID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, circleID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) AddPost(ctx context.Context, authorID, circleID uuid.UUID, content string, postedAt time.Time) (*domain.Post, error) {
	args := m.Called(ctx, authorID, circleID, content, postedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

type MockClaims struct {
	mock.Mock
}

func (m *MockClaims) ClaimReminder(ctx context.Context, eventID uuid.UUID, window string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, window, ttl)
	return args.Bool(0), args.Error(1)
}

func upcomingEvent(circleID uuid.UUID) *domain.Event {
	start := time.Now().Add(5 * time.Minute)
	return &domain.Event{
		EventID:   uuid.New(),
		Name:      "Standup call",
		CircleID:  circleID,
		CreatorID: uuid.New(),
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Type:      domain.EventTypeCall,
	}
}

func TestRemindUpcomingPostsAsCircleAdmin(t *testing.T) {
	calendar := new(MockCalendar)
	circles := new(MockCircles)
	feed := new(MockFeed)
	claims := new(MockClaims)
	w := NewReminderWorker(calendar, circles, feed, claims, DefaultReminderConfig())

	circleID := uuid.New()
	admin := uuid.New()
	event := upcomingEvent(circleID)

	calendar.On("GetUpcoming", mock.Anything, domain.EventTypeCall, 10*time.Minute).
		Return([]*domain.Event{event}, nil)
	claims.On("ClaimReminder", mock.Anything, event.EventID, domain.EventTypeCall, 10*time.Minute).
		Return(true, nil)
	circles.On("GetCircleAdmin", mock.Anything, circleID).Return(admin, nil)
	feed.On("AddPost", mock.Anything, admin, circleID, mock.MatchedBy(func(content string) bool {
		return len(content) > 0
	}), mock.AnythingOfType("time.Time")).Return(&domain.Post{}, nil)

	w.RemindUpcoming(context.Background(), domain.EventTypeCall, 10*time.Minute)

	feed.AssertExpectations(t)
}

func TestRemindUpcomingSkipsLostClaims(t *testing.T) {
	calendar := new(MockCalendar)
	circles := new(MockCircles)
	feed := new(MockFeed)
	claims := new(MockClaims)
	w := NewReminderWorker(calendar, circles, feed, claims, DefaultReminderConfig())

	event := upcomingEvent(uuid.New())

	calendar.On("GetUpcoming", mock.Anything, domain.EventTypeDeadline, 24*time.Hour).
		Return([]*domain.Event{event}, nil)
	claims.On("ClaimReminder", mock.Anything, event.EventID, domain.EventTypeDeadline, 24*time.Hour).
		Return(false, nil)

	w.RemindUpcoming(context.Background(), domain.EventTypeDeadline, 24*time.Hour)

	feed.AssertNotCalled(t, "AddPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	circles.AssertNotCalled(t, "GetCircleAdmin", mock.Anything, mock.Anything)
}

func TestRemindUpcomingContinuesPastAdminLookupFailure(t *testing.T) {
	calendar := new(MockCalendar)
	circles := new(MockCircles)
	feed := new(MockFeed)
	w := NewReminderWorker(calendar, circles, feed, nil, DefaultReminderConfig())

	broken := upcomingEvent(uuid.New())
	healthy := upcomingEvent(uuid.New())
	admin := uuid.New()

	calendar.On("GetUpcoming", mock.Anything, domain.EventTypeCall, 10*time.Minute).
		Return([]*domain.Event{broken, healthy}, nil)
	circles.On("GetCircleAdmin", mock.Anything, broken.CircleID).Return(uuid.Nil, assert.AnError)
	circles.On("GetCircleAdmin", mock.Anything, healthy.CircleID).Return(admin, nil)
	feed.On("AddPost", mock.Anything, admin, healthy.CircleID, mock.Anything, mock.Anything).
		Return(&domain.Post{}, nil)

	w.RemindUpcoming(context.Background(), domain.EventTypeCall, 10*time.Minute)

	feed.AssertNumberOfCalls(t, "AddPost", 1)
}
