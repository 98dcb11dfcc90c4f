package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
)

// Repository abstracts event persistence
type Repository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	GetByCircle(ctx context.Context, circleID uuid.UUID) ([]*domain.Event, error)
	GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Event, error)
	GetStartingWithin(ctx context.Context, eventType string, now time.Time, window time.Duration) ([]*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, eventID uuid.UUID) error
}

// Service implements circle calendar scheduling
type Service struct {
	repo Repository
}

// NewService creates a new calendar service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateEvent schedules an event on a circle's calendar
func (s *Service) CreateEvent(ctx context.Context, creatorID, circleID uuid.UUID, name string, startTime, endTime time.Time, eventType string, recurrence *domain.Recurrence) (*domain.Event, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.MissingFieldError("name")
	}
	if eventType != domain.EventTypeCall && eventType != domain.EventTypeDeadline {
		return nil, apperrors.InvalidInputError("Event type must be call or deadline")
	}
	if !endTime.After(startTime) {
		return nil, apperrors.InvalidInputError("End time must be after start time")
	}
	if recurrence != nil && recurrence.Interval <= 0 {
		return nil, apperrors.InvalidInputError("Recurrence interval must be positive")
	}

	event := &domain.Event{
		EventID:    uuid.New(),
		Name:       name,
		CircleID:   circleID,
		CreatorID:  creatorID,
		StartTime:  startTime,
		EndTime:    endTime,
		Type:       eventType,
		Recurrence: recurrence,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("event scheduled",
		zap.String("event_id", event.EventID.String()),
		zap.String("circle_id", circleID.String()),
		zap.String("type", eventType),
		zap.Time("start_time", startTime),
	)

	return event, nil
}

// GetEventByID retrieves one event
func (s *Service) GetEventByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return s.repo.GetByID(ctx, eventID)
}

// GetEventsOfCircle retrieves a circle's calendar ordered by start time
func (s *Service) GetEventsOfCircle(ctx context.Context, circleID uuid.UUID) ([]*domain.Event, error) {
	return s.repo.GetByCircle(ctx, circleID)
}

// GetEventsOfCreator retrieves all events a user has scheduled
func (s *Service) GetEventsOfCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Event, error) {
	return s.repo.GetByCreator(ctx, creatorID)
}

// GetUpcoming retrieves events of a type starting within the window
func (s *Service) GetUpcoming(ctx context.Context, eventType string, window time.Duration) ([]*domain.Event, error) {
	return s.repo.GetStartingWithin(ctx, eventType, time.Now(), window)
}

// EventUpdate carries the mutable event fields. Nil means keep.
type EventUpdate struct {
	Name       *string
	StartTime  *time.Time
	EndTime    *time.Time
	Recurrence *domain.Recurrence
}

// EditEvent rewrites an event's schedule. Creator only.
func (s *Service) EditEvent(ctx context.Context, userID, eventID uuid.UUID, update EventUpdate) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.CreatorID != userID {
		return nil, apperrors.NotEventCreatorError(userID.String(), eventID.String())
	}

	if update.Name != nil {
		if strings.TrimSpace(*update.Name) == "" {
			return nil, apperrors.MissingFieldError("name")
		}
		event.Name = *update.Name
	}
	if update.StartTime != nil {
		event.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		event.EndTime = *update.EndTime
	}
	if update.Recurrence != nil {
		if update.Recurrence.Interval <= 0 {
			return nil, apperrors.InvalidInputError("Recurrence interval must be positive")
		}
		event.Recurrence = update.Recurrence
	}

	if !event.EndTime.After(event.StartTime) {
		return nil, apperrors.InvalidInputError("End time must be after start time")
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// DeleteEvent removes an event. Creator only.
func (s *Service) DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if event.CreatorID != userID {
		return apperrors.NotEventCreatorError(userID.String(), eventID.String())
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("event deleted",
		zap.String("event_id", eventID.String()),
		zap.String("creator_id", userID.String()),
	)

	return nil
}

// IsUpcoming reports whether an event starts within the window of now
func (s *Service) IsUpcoming(ctx context.Context, eventID uuid.UUID, window time.Duration) (bool, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	return event.IsUpcoming(time.Now(), window), nil
}

// EventDuration returns the scheduled length of an event
func (s *Service) EventDuration(ctx context.Context, eventID uuid.UUID) (time.Duration, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.Duration(), nil
}
